// Package rules evaluates per-document access policy. A policy function
// inspects one candidate document plus request context and switches
// individual permission flags on. Every flag starts off, so a policy that
// does nothing denies everything.
package rules

import (
	"log/slog"
	"sync"
)

// Request carries the context a policy function sees for one candidate.
type Request struct {
	// Collection the operation addresses.
	Collection string
	// ID of the candidate document, empty for operations with no target yet.
	ID string
	// Document is the candidate's current state, nil when none exists.
	Document map[string]any
	// Update is the incoming payload for write operations, nil otherwise.
	Update map[string]any
	// Auth is the caller identity attached to the request, opaque to the
	// engine and interpreted only by policy code.
	Auth any
}

// Response is the set of permission flags a policy grants. Each flag gates
// one operation shape; the engine consults exactly the flag matching the
// operation and addressing mode in play.
type Response struct {
	Get          bool
	Find         bool
	Add          bool
	Delete       bool
	DeleteByFind bool
	Update       bool
	UpdateByFind bool
	Set          bool
	SetByFind    bool
}

// AllowRead switches on both read flags.
func (r *Response) AllowRead() {
	r.Get = true
	r.Find = true
}

// AllowWrite switches on every write flag.
func (r *Response) AllowWrite() {
	r.Add = true
	r.Delete = true
	r.DeleteByFind = true
	r.Update = true
	r.UpdateByFind = true
	r.Set = true
	r.SetByFind = true
}

// AllowAll switches on every flag.
func (r *Response) AllowAll() {
	r.AllowRead()
	r.AllowWrite()
}

// Side exposes server-side capabilities to policy code, primarily the
// admin surface that bypasses policy for nested reads.
type Side struct {
	Admin any
}

// Func is a policy function. It mutates the Response it is handed; a
// returned error denies the candidate outright.
type Func func(req *Request, res *Response, side *Side) error

// Registry maps collections to their policy functions. A collection with
// no registered policy falls back to the default policy; with no default
// either, everything is denied.
type Registry struct {
	mu           sync.RWMutex
	byCollection map[string]Func
	fallback     Func
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byCollection: make(map[string]Func)}
}

// Register installs the policy for one collection, replacing any previous one.
func (rg *Registry) Register(collection string, fn Func) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.byCollection[collection] = fn
}

// SetDefault installs the fallback policy for collections without one.
func (rg *Registry) SetDefault(fn Func) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.fallback = fn
}

func (rg *Registry) lookup(collection string) Func {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	if fn, ok := rg.byCollection[collection]; ok {
		return fn
	}
	return rg.fallback
}

// Evaluator runs policy functions with a containment boundary: a policy
// that panics or errors yields a fully denied Response instead of taking
// the request down.
type Evaluator struct {
	registry *Registry
	side     *Side
	verbose  bool
}

// NewEvaluator returns an Evaluator over the given registry. The side
// value is handed to every policy invocation.
func NewEvaluator(registry *Registry, side *Side, verbose bool) *Evaluator {
	if side == nil {
		side = &Side{}
	}
	return &Evaluator{registry: registry, side: side, verbose: verbose}
}

// Evaluate runs the collection's policy against one candidate and returns
// the granted flags. Each call gets a fresh zero-value Response, so grants
// never leak between candidates.
func (e *Evaluator) Evaluate(req *Request) *Response {
	res := &Response{}

	fn := e.registry.lookup(req.Collection)
	if fn == nil {
		if e.verbose {
			slog.Warn("No policy registered, denying", "collection", req.Collection)
		}
		return res
	}

	if err := e.run(fn, req, res); err != nil {
		if e.verbose {
			slog.Warn("Policy rejected candidate", "collection", req.Collection, "id", req.ID, "error", err)
		}
		return &Response{}
	}
	return res
}

// run invokes one policy function, converting a panic into an error so a
// faulty policy can never crash the pipeline.
func (e *Evaluator) run(fn Func, req *Request, res *Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Policy function panicked", "collection", req.Collection, "panic", r)
			err = &PanicError{Value: r}
		}
	}()
	return fn(req, res, e.side)
}

// PanicError wraps a value recovered from a panicking policy function.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return "policy function panicked"
}
