// Package admin is the server-side data API. It drives the same operation
// pipeline as the wire surface but with policy evaluation bypassed, for
// use inside policy functions, trigger callbacks and setup code. Trigger
// dispatch is opt-in per call so server-side writes can stay silent.
package admin

import (
	"docstore/internal/globalconst"
	"docstore/internal/handler"
	"docstore/internal/query"
)

// Admin is the root of the server-side API.
type Admin struct {
	handler *handler.Handler
}

// New returns an Admin over the given pipeline.
func New(h *handler.Handler) *Admin {
	return &Admin{handler: h}
}

// Store returns the server-side store surface.
func (a *Admin) Store() *Store {
	return &Store{handler: a.handler}
}

// Store addresses collections.
type Store struct {
	handler *handler.Handler
}

// Collection addresses one collection by name.
func (s *Store) Collection(name string) *Collection {
	return &Collection{handler: s.handler, name: name}
}

// Collection is the server-side handle on one collection.
type Collection struct {
	handler *handler.Handler
	name    string
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Add inserts a document. runTriggers controls whether the added trigger
// fires.
func (c *Collection) Add(data map[string]any, runTriggers bool) *handler.Response {
	resp := handler.NewResponse()
	if err := c.handler.Add(c.name, data, nil, true, !runTriggers, resp); err != nil {
		return crashed()
	}
	return resp
}

// Doc addresses a single document by identifier.
func (c *Collection) Doc(id string) *Target {
	q, err := query.ByID(id)
	return &Target{collection: c, query: q, err: err}
}

// All addresses every document in the collection.
func (c *Collection) All() *Target {
	return &Target{collection: c, query: query.ByFilter(map[string]any{})}
}

// Query starts a predicate over the collection. Chain Where clauses on the
// returned Target before running an operation.
func (c *Collection) Query() *Target {
	return &Target{collection: c, builder: query.NewBuilder()}
}

// Target is a bound addressing expression awaiting an operation.
type Target struct {
	collection *Collection
	query      query.Query
	builder    *query.Builder
	err        error
}

// Where adds an operator clause to a predicate target. Calling Where on an
// identifier target is a no-op.
func (t *Target) Where(field, op string, value any) *Target {
	if t.builder != nil {
		t.builder.Where(field, op, value)
	}
	return t
}

func (t *Target) resolved() query.Query {
	if t.builder != nil {
		return t.builder.Build()
	}
	return t.query
}

// Get reads the addressed documents. runTriggers controls whether read
// triggers fire.
func (t *Target) Get(runTriggers bool) *handler.Response {
	if t.err != nil {
		return invalid(t.err)
	}
	resp := handler.NewResponse()
	if err := t.collection.handler.Get(t.collection.name, t.resolved(), nil, true, !runTriggers, resp); err != nil {
		return crashed()
	}
	return resp
}

// Set replaces the addressed documents with data.
func (t *Target) Set(data map[string]any, runTriggers bool) *handler.Response {
	if t.err != nil {
		return invalid(t.err)
	}
	resp := handler.NewResponse()
	if err := t.collection.handler.Set(t.collection.name, t.resolved(), data, nil, true, !runTriggers, resp); err != nil {
		return crashed()
	}
	return resp
}

// Update merges data into the addressed documents.
func (t *Target) Update(data map[string]any, runTriggers bool) *handler.Response {
	if t.err != nil {
		return invalid(t.err)
	}
	resp := handler.NewResponse()
	if err := t.collection.handler.Update(t.collection.name, t.resolved(), data, nil, true, !runTriggers, resp); err != nil {
		return crashed()
	}
	return resp
}

// Delete removes the addressed documents.
func (t *Target) Delete(runTriggers bool) *handler.Response {
	if t.err != nil {
		return invalid(t.err)
	}
	resp := handler.NewResponse()
	if err := t.collection.handler.Delete(t.collection.name, t.resolved(), nil, true, !runTriggers, resp); err != nil {
		return crashed()
	}
	return resp
}

func invalid(err error) *handler.Response {
	resp := handler.NewResponse()
	resp.Status = globalconst.StatusInvalidRequest
	resp.Message = err.Error()
	return resp
}

func crashed() *handler.Response {
	resp := handler.NewResponse()
	resp.Status = globalconst.StatusCrash
	return resp
}
