// Package chain implements the event-chain runtime: a chain owns an
// ordered list of events, an ordered list of middlewares, and a context,
// and executes the events in order through the onion-composed middleware
// pipeline under a fault-tolerance policy.
package chain

import (
	"crypto/rand"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/danshapiro/coretiny/chctx"
	"github.com/danshapiro/coretiny/corerr"
	"github.com/danshapiro/coretiny/telemetry"
)

// FaultMode selects how a chain reacts to a phase failure.
type FaultMode int

const (
	FaultStrict FaultMode = iota
	FaultLenient
	FaultBestEffort
	FaultCustom
)

// Bounds mirror the runtime's build-time capacity constants.
const (
	MaxEvents     = 1024
	MaxMiddleware = 16
)

// FailureHandler is consulted in FaultCustom mode; it returns whether
// execution should continue past the failing event.
type FailureHandler func(c *Chain, event *Event, result *EventResult, userData any) bool

// Chain is the runtime. Construct with New; events and middlewares
// must be registered before the first Execute call.
type Chain struct {
	events      []*Event
	middlewares []*Middleware
	context     *chctx.Context

	faultMode   FaultMode
	detailLevel corerr.DetailLevel

	failureHandler     FailureHandler
	failureHandlerData any

	isExecuting       atomic.Bool
	signalInterrupted atomic.Int32

	telemetry *telemetry.Sink
}

// New creates an empty chain with a fresh context and full-detail errors.
func New(mode FaultMode) *Chain {
	return NewWithDetail(mode, corerr.DetailFull)
}

// NewWithDetail creates an empty chain with the given fault mode and error
// detail level.
func NewWithDetail(mode FaultMode, detail corerr.DetailLevel) *Chain {
	return &Chain{
		context:     chctx.New(),
		faultMode:   mode,
		detailLevel: detail,
	}
}

// Context returns the chain's context.
func (c *Chain) Context() *chctx.Context { return c.context }

// SetTelemetry attaches a sink that Execute will emit lifecycle events to.
// Passing nil disables telemetry.
func (c *Chain) SetTelemetry(sink *telemetry.Sink) { c.telemetry = sink }

// AddEvent registers event at the end of the chain. Fails with Reentrancy
// if called while Execute is running, and with CapacityExceeded past
// MaxEvents.
func (c *Chain) AddEvent(event *Event) error {
	if event == nil {
		return corerr.New(corerr.NullPointer, corerr.DetailFull, "add_event: nil event")
	}
	if c.isExecuting.Load() {
		return corerr.New(corerr.Reentrancy, corerr.DetailFull, "add_event during execution")
	}
	if len(c.events) >= MaxEvents {
		return corerr.New(corerr.CapacityExceeded, corerr.DetailFull, "add_event: max events exceeded")
	}
	c.events = append(c.events, event)
	return nil
}

// UseMiddleware registers middleware at the end of the pipeline (it becomes
// the innermost layer relative to previously-registered middlewares).
// Fails with Reentrancy if called while Execute is running, and with
// CapacityExceeded past MaxMiddleware.
func (c *Chain) UseMiddleware(mw *Middleware) error {
	if mw == nil {
		return corerr.New(corerr.NullPointer, corerr.DetailFull, "use_middleware: nil middleware")
	}
	if c.isExecuting.Load() {
		return corerr.New(corerr.Reentrancy, corerr.DetailFull, "use_middleware during execution")
	}
	if len(c.middlewares) >= MaxMiddleware {
		return corerr.New(corerr.CapacityExceeded, corerr.DetailFull, "use_middleware: max middleware exceeded")
	}
	c.middlewares = append(c.middlewares, mw)
	return nil
}

// SetFailureHandler installs the callback consulted in FaultCustom mode.
func (c *Chain) SetFailureHandler(handler FailureHandler, userData any) error {
	if c.isExecuting.Load() {
		return corerr.New(corerr.Reentrancy, corerr.DetailFull, "set_failure_handler during execution")
	}
	c.failureHandler = handler
	c.failureHandlerData = userData
	return nil
}

// Interrupt sets the signal_interrupted flag; a middleware that reads
// WasInterrupted can use this to cooperatively short-circuit.
func (c *Chain) Interrupt() { c.signalInterrupted.Store(1) }

// WasInterrupted reports whether Interrupt has been called. The runtime
// never polls this itself; it is exposed for middlewares and hosts.
func (c *Chain) WasInterrupted() bool { return c.signalInterrupted.Load() != 0 }

// executeEventWithMiddleware runs event through the onion: the
// first-registered middleware is outermost.
func (c *Chain) executeEventWithMiddleware(event *Event) EventResult {
	if len(c.middlewares) == 0 {
		return c.executeEventDirect(event)
	}

	var result EventResult
	var dispatch func(index int) Next
	dispatch = func(index int) Next {
		return func(resultPtr *EventResult, ev *Event, ctx *chctx.Context, nextData any) {
			if index >= len(c.middlewares) {
				*resultPtr = c.executeEventDirect(ev)
				return
			}
			mw := c.middlewares[index]
			mw.Execute(resultPtr, ev, ctx, dispatch(index+1), nil, mw.UserData)
		}
	}
	dispatch(0)(&result, event, c.context, nil)
	return result
}

func (c *Chain) executeEventDirect(event *Event) EventResult {
	if event == nil || event.Execute == nil {
		return Fail(corerr.InvalidFunctionPointer, corerr.DetailFull, "invalid event")
	}
	return event.Execute(c.context, event.UserData)
}

// Execute runs every registered event in order through the middleware
// pipeline, applying the fault-tolerance policy, and returns the
// aggregate result.
func (c *Chain) Execute() *ChainResult {
	if !c.isExecuting.CompareAndSwap(false, true) {
		return &ChainResult{Success: false}
	}

	runID := newRunID()
	if c.telemetry != nil {
		_ = c.telemetry.ChainStarted(runID, len(c.events))
	}

	result := &ChainResult{Success: true, RunID: runID}

	for _, event := range c.events {
		eventResult := c.executeEventWithMiddleware(event)

		if c.telemetry != nil {
			_ = c.telemetry.EventFinished(runID, event.Name, eventResult.Success, int(eventResult.ErrorCode))
		}

		if !eventResult.Success {
			shouldContinue := c.shouldContinue(event, &eventResult)

			result.Failures = append(result.Failures, FailureInfo{
				EventName:    event.Name,
				ErrorMessage: eventResult.ErrorMessage,
				ErrorCode:    eventResult.ErrorCode,
			})

			if !shouldContinue {
				result.Success = false
				break
			}
		}
	}

	c.isExecuting.Store(false)

	if len(result.Failures) > 0 && c.faultMode == FaultStrict {
		result.Success = false
	}

	if c.telemetry != nil {
		_ = c.telemetry.ChainCompleted(runID, result.Success, len(result.Failures), "")
	}

	return result
}

func (c *Chain) shouldContinue(event *Event, result *EventResult) bool {
	switch c.faultMode {
	case FaultStrict:
		return false
	case FaultLenient, FaultBestEffort:
		return true
	case FaultCustom:
		if c.failureHandler != nil {
			return c.failureHandler(c, event, result, c.failureHandlerData)
		}
		return false
	default:
		return false
	}
}

func newRunID() string {
	ts := ulid.Timestamp(time.Now())
	id, err := ulid.New(ts, rand.Reader)
	if err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano()%math.MaxInt64)
	}
	return id.String()
}
