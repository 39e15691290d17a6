package chain

import "github.com/danshapiro/coretiny/chctx"

// EventFunc is a phase's callable: it reads/writes the shared context and
// reports a per-phase outcome.
type EventFunc func(ctx *chctx.Context, userData any) EventResult

// Event is a named phase descriptor (C4a): a callable plus whatever user
// data it closes over or is handed at registration time.
type Event struct {
	Execute  EventFunc
	UserData any
	Name     string
}

// NewEvent builds an Event, defaulting its name when none is given, the
// way the source library names an unnamed event "UnnamedEvent".
func NewEvent(name string, execute EventFunc, userData any) *Event {
	if name == "" {
		name = "UnnamedEvent"
	}
	return &Event{Execute: execute, UserData: userData, Name: name}
}

// Next is the continuation a middleware invokes to run the remainder of
// the pipeline (the next middleware, or the event itself if none remain).
type Next func(result *EventResult, event *Event, ctx *chctx.Context, nextData any)

// MiddlewareFunc wraps every event uniformly. It may inspect or mutate the
// context before calling next, skip next to short-circuit with a
// synthesized failure, or inspect/mutate the result after next returns. It
// must not call next more than once per invocation.
type MiddlewareFunc func(result *EventResult, event *Event, ctx *chctx.Context, next Next, nextData any, userData any)

// Middleware is a named wrapper descriptor (C4b).
type Middleware struct {
	Execute  MiddlewareFunc
	UserData any
	Name     string
}

// NewMiddleware builds a Middleware, defaulting its name like NewEvent.
func NewMiddleware(name string, execute MiddlewareFunc, userData any) *Middleware {
	if name == "" {
		name = "UnnamedMiddleware"
	}
	return &Middleware{Execute: execute, UserData: userData, Name: name}
}
