// Package telemetry provides a small, explicitly-lifecycled structured
// event sink for chain execution, serializing a closed set of typed
// events with msgpack to a pluggable io.Writer. Rather than a global,
// lazily-initialized stats table, a Sink is bound with an explicit Init
// and scoped to a single chain's lifecycle.
package telemetry

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// EventKind names one of the closed set of event shapes a Sink can emit.
type EventKind string

const (
	KindChainStarted   EventKind = "chain_started"
	KindEventFinished  EventKind = "event_finished"
	KindChainCompleted EventKind = "chain_completed"
)

// ChainStarted is emitted once at the top of Chain.Execute.
type ChainStarted struct {
	RunID     string    `msgpack:"run_id"`
	Timestamp time.Time `msgpack:"timestamp"`
	EventN    int       `msgpack:"event_count"`
}

// EventFinished is emitted after each phase's middleware pipeline returns.
type EventFinished struct {
	RunID     string    `msgpack:"run_id"`
	Timestamp time.Time `msgpack:"timestamp"`
	EventName string    `msgpack:"event_name"`
	Success   bool      `msgpack:"success"`
	ErrorCode int       `msgpack:"error_code,omitempty"`
}

// ChainCompleted is emitted once execution finishes, successfully or not.
type ChainCompleted struct {
	RunID         string    `msgpack:"run_id"`
	Timestamp     time.Time `msgpack:"timestamp"`
	Success       bool      `msgpack:"success"`
	FailureCount  int       `msgpack:"failure_count"`
	OutputDigest  string    `msgpack:"output_digest,omitempty"`
}

// record is the envelope every event is wrapped in before serialization,
// so a single decode loop on the reading side can dispatch on Kind.
type record struct {
	Kind    EventKind `msgpack:"kind"`
	Payload any       `msgpack:"payload"`
}

// Sink is a msgpack-encoding event writer. The zero value is not usable;
// construct with Init.
type Sink struct {
	mu  sync.Mutex
	enc *msgpack.Encoder
	w   io.Writer
}

// Init binds a Sink to w. Call Close when the owning chain is done with it.
func Init(w io.Writer) *Sink {
	return &Sink{w: w, enc: msgpack.NewEncoder(w)}
}

// Close is a no-op beyond dropping the sink's reference to its writer; it
// exists so callers have a symmetric lifecycle call even though the
// underlying io.Writer's own Close (if any) is the caller's responsibility.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = nil
	s.enc = nil
	return nil
}

func (s *Sink) emit(kind EventKind, payload any) error {
	if s == nil || s.enc == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(record{Kind: kind, Payload: payload}); err != nil {
		return fmt.Errorf("telemetry: encode %s: %w", kind, err)
	}
	return nil
}

// ChainStarted records the start of a chain execution.
func (s *Sink) ChainStarted(runID string, eventCount int) error {
	return s.emit(KindChainStarted, ChainStarted{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		EventN:    eventCount,
	})
}

// EventFinished records the outcome of one phase.
func (s *Sink) EventFinished(runID, eventName string, success bool, errorCode int) error {
	return s.emit(KindEventFinished, EventFinished{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		EventName: eventName,
		Success:   success,
		ErrorCode: errorCode,
	})
}

// ChainCompleted records the final aggregate result of a chain execution.
func (s *Sink) ChainCompleted(runID string, success bool, failureCount int, outputDigest string) error {
	return s.emit(KindChainCompleted, ChainCompleted{
		RunID:        runID,
		Timestamp:    time.Now().UTC(),
		Success:      success,
		FailureCount: failureCount,
		OutputDigest: outputDigest,
	})
}
