package handler

import (
	"fmt"

	"docstore/internal/globalconst"
	"docstore/internal/query"
	"docstore/internal/rules"
	"docstore/internal/triggers"
)

// allowed gates one candidate. Bypass short-circuits before any policy
// code runs; otherwise the policy is evaluated exactly once and the flag
// relevant to the operation is consulted.
func (h *Handler) allowed(bypass bool, ctx *rules.Request, flag func(*rules.Response) bool) bool {
	if bypass {
		return true
	}
	return flag(h.evaluator.Evaluate(ctx))
}

func docID(doc map[string]any) string {
	id, _ := doc[globalconst.ID].(string)
	return id
}

// cloneMap copies a payload through the JSON codec so per-candidate
// after-images never alias each other.
func cloneMap(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("clone payload: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone payload: %w", err)
	}
	return out, nil
}

// Add inserts a new document. The policy sees the payload as both the
// current document and the proposed replacement, since no stored state
// exists yet.
func (h *Handler) Add(collection string, data map[string]any, auth any, bypassRules, bypassTriggers bool, resp *Response) error {
	Decode(data)

	ctx := &rules.Request{Collection: collection, Document: data, Update: data, Auth: auth}
	if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.Add }) {
		resp.invalidPermissions()
		return nil
	}

	id, err := h.store.InsertOne(collection, data)
	if err != nil {
		return err
	}
	data[globalconst.ID] = id
	resp.Documents = append(resp.Documents, data)

	if !bypassTriggers {
		h.dispatcher.Dispatch(triggers.Event{
			Kind:       triggers.KindAdded,
			Collection: collection,
			ID:         id,
			Document:   data,
			Auth:       auth,
		})
	}
	return nil
}

// Get reads the documents a query addresses. An identifier miss is a
// silent no-op; an identifier denial stops with invalid_permissions. In
// predicate mode each candidate is granted or skipped on its own.
func (h *Handler) Get(collection string, q query.Query, auth any, bypassRules, bypassTriggers bool, resp *Response) error {
	if q.ByID {
		doc, err := h.store.FindOne(collection, q)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}

		ctx := &rules.Request{Collection: collection, ID: docID(doc), Document: doc, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.Get }) {
			resp.invalidPermissions()
			return nil
		}

		resp.Documents = append(resp.Documents, doc)
		if !bypassTriggers {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindRead,
				Collection: collection,
				ID:         docID(doc),
				Document:   doc,
				Auth:       auth,
			})
		}
		return nil
	}

	cursor, err := h.store.Find(collection, q)
	if err != nil {
		return err
	}
	for doc, ok := cursor.Next(); ok; doc, ok = cursor.Next() {
		ctx := &rules.Request{Collection: collection, ID: docID(doc), Document: doc, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.Find }) {
			continue
		}

		resp.Documents = append(resp.Documents, doc)
		if !bypassTriggers {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindRead,
				Collection: collection,
				ID:         docID(doc),
				Document:   doc,
				Auth:       auth,
			})
		}
	}
	return nil
}

// Delete removes the documents a query addresses, reporting each removed
// document's last state.
func (h *Handler) Delete(collection string, q query.Query, auth any, bypassRules, bypassTriggers bool, resp *Response) error {
	if q.ByID {
		before, err := h.store.FindOne(collection, q)
		if err != nil {
			return err
		}
		if before == nil {
			return nil
		}

		ctx := &rules.Request{Collection: collection, ID: docID(before), Document: before, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.Delete }) {
			resp.invalidPermissions()
			return nil
		}

		if err := h.store.DeleteOne(collection, docID(before)); err != nil {
			return err
		}
		resp.Documents = append(resp.Documents, before)
		if !bypassTriggers {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindDeleted,
				Collection: collection,
				ID:         docID(before),
				Document:   before,
				Auth:       auth,
			})
		}
		return nil
	}

	cursor, err := h.store.Find(collection, q)
	if err != nil {
		return err
	}
	for before, ok := cursor.Next(); ok; before, ok = cursor.Next() {
		ctx := &rules.Request{Collection: collection, ID: docID(before), Document: before, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.DeleteByFind }) {
			continue
		}

		if err := h.store.DeleteOne(collection, docID(before)); err != nil {
			return err
		}
		resp.Documents = append(resp.Documents, before)
		if !bypassTriggers {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindDeleted,
				Collection: collection,
				ID:         docID(before),
				Document:   before,
				Auth:       auth,
			})
		}
	}
	return nil
}

// Set replaces each addressed document's field set with the payload,
// preserving its identifier. The updated trigger fires only when the
// replacement actually differs from the stored state; the write itself
// happens either way.
func (h *Handler) Set(collection string, q query.Query, data map[string]any, auth any, bypassRules, bypassTriggers bool, resp *Response) error {
	Decode(data)

	if q.ByID {
		before, err := h.store.FindOne(collection, q)
		if err != nil {
			return err
		}
		if before == nil {
			return nil
		}

		after, err := cloneMap(data)
		if err != nil {
			return err
		}
		after[globalconst.ID] = docID(before)

		ctx := &rules.Request{Collection: collection, ID: docID(before), Document: before, Update: after, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.Set }) {
			resp.invalidPermissions()
			return nil
		}

		if err := h.store.ReplaceOne(collection, docID(before), after); err != nil {
			return err
		}
		resp.Documents = append(resp.Documents, after)
		if !bypassTriggers && DataUpdated(before, after) {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindUpdated,
				Collection: collection,
				ID:         docID(before),
				Document:   after,
				Before:     before,
				Auth:       auth,
			})
		}
		return nil
	}

	cursor, err := h.store.Find(collection, q)
	if err != nil {
		return err
	}
	for before, ok := cursor.Next(); ok; before, ok = cursor.Next() {
		after, err := cloneMap(data)
		if err != nil {
			return err
		}
		after[globalconst.ID] = docID(before)

		ctx := &rules.Request{Collection: collection, ID: docID(before), Document: before, Update: after, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.SetByFind }) {
			continue
		}

		if err := h.store.ReplaceOne(collection, docID(before), after); err != nil {
			return err
		}
		resp.Documents = append(resp.Documents, after)
		if !bypassTriggers && DataUpdated(before, after) {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindUpdated,
				Collection: collection,
				ID:         docID(before),
				Document:   after,
				Before:     before,
				Auth:       auth,
			})
		}
	}
	return nil
}

// Update merges the payload fields into each addressed document, leaving
// other fields untouched. Change detection compares only the patched
// fields, so a patch equal to stored state persists without firing the
// updated trigger.
func (h *Handler) Update(collection string, q query.Query, data map[string]any, auth any, bypassRules, bypassTriggers bool, resp *Response) error {
	Decode(data)

	if q.ByID {
		before, err := h.store.FindOne(collection, q)
		if err != nil {
			return err
		}
		if before == nil {
			return nil
		}

		patch, err := cloneMap(data)
		if err != nil {
			return err
		}
		patch[globalconst.ID] = docID(before)

		ctx := &rules.Request{Collection: collection, ID: docID(before), Document: before, Update: patch, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.Update }) {
			resp.invalidPermissions()
			return nil
		}

		if err := h.store.UpdateOne(collection, docID(before), patch); err != nil {
			return err
		}
		resp.Documents = append(resp.Documents, patch)
		if !bypassTriggers && DataUpdated(before, patch) {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindUpdated,
				Collection: collection,
				ID:         docID(before),
				Document:   patch,
				Before:     before,
				Auth:       auth,
			})
		}
		return nil
	}

	cursor, err := h.store.Find(collection, q)
	if err != nil {
		return err
	}
	for before, ok := cursor.Next(); ok; before, ok = cursor.Next() {
		patch, err := cloneMap(data)
		if err != nil {
			return err
		}
		patch[globalconst.ID] = docID(before)

		ctx := &rules.Request{Collection: collection, ID: docID(before), Document: before, Update: patch, Auth: auth}
		if !h.allowed(bypassRules, ctx, func(g *rules.Response) bool { return g.UpdateByFind }) {
			continue
		}

		if err := h.store.UpdateOne(collection, docID(before), patch); err != nil {
			return err
		}
		resp.Documents = append(resp.Documents, patch)
		if !bypassTriggers && DataUpdated(before, patch) {
			h.dispatcher.Dispatch(triggers.Event{
				Kind:       triggers.KindUpdated,
				Collection: collection,
				ID:         docID(before),
				Document:   patch,
				Before:     before,
				Auth:       auth,
			})
		}
	}
	return nil
}
