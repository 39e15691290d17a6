package chain

import "github.com/danshapiro/coretiny/corerr"

// EventResult is the per-phase outcome: success plus, on failure, a
// stable code and a bounded human message.
type EventResult struct {
	Success      bool
	ErrorCode    corerr.Code
	ErrorMessage string
}

// Ok builds a successful EventResult.
func Ok() EventResult {
	return EventResult{Success: true}
}

// Fail builds a failed EventResult, formatting the message according to
// detail (full message, or a terse "Error code: N" under minimal detail).
// Messages longer than 1024 bytes are truncated to that length.
func Fail(code corerr.Code, detail corerr.DetailLevel, message string) EventResult {
	const maxErrorLength = 1024
	ce := corerr.New(code, detail, message)
	msg := ce.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength]
	}
	return EventResult{Success: false, ErrorCode: code, ErrorMessage: msg}
}

// FailureInfo records one event's failure for ChainResult's audit trail.
type FailureInfo struct {
	EventName    string
	ErrorMessage string
	ErrorCode    corerr.Code
}

// ChainResult is the aggregate outcome of one Chain.Execute call.
type ChainResult struct {
	Success  bool
	Failures []FailureInfo
	RunID    string
}
