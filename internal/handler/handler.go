// Package handler implements the document-operation pipeline: it validates
// an inbound request, normalizes its query, runs the collection's policy
// against every candidate document, applies granted mutations to the store
// and hands committed changes to the trigger dispatcher.
package handler

import (
	"fmt"
	"log/slog"

	"docstore/internal/globalconst"
	"docstore/internal/query"
	"docstore/internal/rules"
	"docstore/internal/store"
	"docstore/internal/triggers"
)

// Handler wires the pipeline's collaborators together. One Handler serves
// all collections; concurrent Handle calls are safe, serialization is left
// to the store's per-document atomicity.
type Handler struct {
	store      *store.Store
	evaluator  *rules.Evaluator
	dispatcher *triggers.Dispatcher
	verbose    bool
}

// New returns a Handler over the given store, policy evaluator and
// trigger dispatcher.
func New(s *store.Store, evaluator *rules.Evaluator, dispatcher *triggers.Dispatcher, verbose bool) *Handler {
	return &Handler{
		store:      s,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		verbose:    verbose,
	}
}

// Store exposes the underlying document store.
func (h *Handler) Store() *store.Store {
	return h.store
}

// Dispatcher exposes the trigger dispatcher for registration at setup time.
func (h *Handler) Dispatcher() *triggers.Dispatcher {
	return h.dispatcher
}

// Handle runs one operation end to end and always returns a structured
// Response. Malformed requests are rejected before any store or policy
// access; anything unexpected escaping an operation is contained here and
// surfaced as a crash status.
func (h *Handler) Handle(req *Request) (resp *Response) {
	resp = NewResponse()

	defer func() {
		if r := recover(); r != nil {
			if h.verbose {
				slog.Error("Operation panicked", "action", req.Action, "collection", req.Collection, "panic", r)
			} else {
				slog.Error("Operation crashed. Enable verbose mode for detailed information.")
			}
			resp = NewResponse().crash()
		}
	}()

	if req.Action == "" {
		return resp.invalidRequest("action is required")
	}
	if req.Collection == "" {
		return resp.invalidRequest("collection is required")
	}

	var err error
	switch req.Action {
	case globalconst.ActionAdd:
		if req.Data == nil {
			return resp.invalidRequest("data is required for add")
		}
		err = h.Add(req.Collection, req.Data, req.Auth, req.BypassRules, req.BypassTriggers, resp)

	case globalconst.ActionGet:
		q, qErr := targetQuery(req)
		if qErr != nil {
			return resp.invalidRequest(qErr.Error())
		}
		err = h.Get(req.Collection, q, req.Auth, req.BypassRules, req.BypassTriggers, resp)

	case globalconst.ActionDelete:
		q, qErr := targetQuery(req)
		if qErr != nil {
			return resp.invalidRequest(qErr.Error())
		}
		err = h.Delete(req.Collection, q, req.Auth, req.BypassRules, req.BypassTriggers, resp)

	case globalconst.ActionSet:
		if req.Data == nil {
			return resp.invalidRequest("data is required for set")
		}
		q, qErr := targetQuery(req)
		if qErr != nil {
			return resp.invalidRequest(qErr.Error())
		}
		err = h.Set(req.Collection, q, req.Data, req.Auth, req.BypassRules, req.BypassTriggers, resp)

	case globalconst.ActionUpdate:
		if req.Data == nil {
			return resp.invalidRequest("data is required for update")
		}
		q, qErr := targetQuery(req)
		if qErr != nil {
			return resp.invalidRequest(qErr.Error())
		}
		err = h.Update(req.Collection, q, req.Data, req.Auth, req.BypassRules, req.BypassTriggers, resp)

	default:
		return resp.invalidRequest(fmt.Sprintf("unknown action %q", req.Action))
	}

	if err != nil {
		if h.verbose {
			slog.Error("Operation failed", "action", req.Action, "collection", req.Collection, "error", err)
		} else {
			slog.Error("Operation crashed. Enable verbose mode for detailed information.")
		}
		return NewResponse().crash()
	}
	return resp
}

// targetQuery builds the internal query from a request's addressing
// fields. Exactly one of the identifier and the predicate must be present.
func targetQuery(req *Request) (query.Query, error) {
	hasID := req.Document != ""
	hasPredicate := req.Query != nil

	switch {
	case hasID && hasPredicate:
		return query.Query{}, fmt.Errorf("query and document are mutually exclusive")
	case hasID:
		return query.ByID(req.Document)
	case hasPredicate:
		return query.ByFilter(req.Query), nil
	default:
		return query.Query{}, fmt.Errorf("query or document is required for %s", req.Action)
	}
}
