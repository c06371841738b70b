package handler

import (
	jsoniter "github.com/json-iterator/go"

	"docstore/internal/globalconst"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request is one document operation as it arrives off the wire. Exactly
// one of Query and Document addresses the target for get, set, update and
// delete; add takes neither.
type Request struct {
	// Action selects the operation: get, add, set, update or delete.
	Action string `json:"action"`
	// Collection names the document collection addressed.
	Collection string `json:"collection"`
	// Query is a predicate over document fields.
	Query map[string]any `json:"query,omitempty"`
	// Document is a single target identifier.
	Document string `json:"document,omitempty"`
	// Data is the payload for add, set and update.
	Data map[string]any `json:"data,omitempty"`
	// Auth is the caller identity, passed through to policy code untouched.
	Auth any `json:"auth,omitempty"`

	// BypassRules skips policy evaluation. Server-side only; never
	// settable from the wire.
	BypassRules bool `json:"-"`
	// BypassTriggers suppresses trigger dispatch. Server-side only.
	BypassTriggers bool `json:"-"`
}

// Response is the outcome of one operation: a status code plus the
// documents the operation touched.
type Response struct {
	Status    string           `json:"response"`
	Message   string           `json:"message,omitempty"`
	Documents []map[string]any `json:"documents"`
}

// NewResponse returns a Response in the ok state with no documents.
func NewResponse() *Response {
	return &Response{
		Status:    globalconst.StatusOk,
		Documents: []map[string]any{},
	}
}

func (r *Response) invalidRequest(message string) *Response {
	r.Status = globalconst.StatusInvalidRequest
	r.Message = message
	return r
}

func (r *Response) invalidPermissions() *Response {
	r.Status = globalconst.StatusInvalidPermissions
	return r
}

func (r *Response) crash() *Response {
	r.Status = globalconst.StatusCrash
	return r
}
