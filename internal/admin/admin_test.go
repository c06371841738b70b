package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/globalconst"
	"docstore/internal/handler"
	"docstore/internal/rules"
	"docstore/internal/store"
	"docstore/internal/triggers"
)

// newAdmin builds an Admin over a pipeline whose policy denies everything,
// proving that the admin surface bypasses policy.
func newAdmin(t *testing.T) (*Admin, *triggers.Dispatcher) {
	t.Helper()

	registry := rules.NewRegistry()
	registry.SetDefault(func(_ *rules.Request, _ *rules.Response, _ *rules.Side) error {
		return nil
	})
	evaluator := rules.NewEvaluator(registry, nil, false)
	dispatcher := triggers.NewDispatcher()
	t.Cleanup(dispatcher.Close)

	h := handler.New(store.New(), evaluator, dispatcher, false)
	return New(h), dispatcher
}

func TestAdminBypassesDenyingPolicy(t *testing.T) {
	a, _ := newAdmin(t)
	users := a.Store().Collection("users")

	resp := users.Add(map[string]any{"name": "ada"}, false)
	require.Equal(t, globalconst.StatusOk, resp.Status)
	require.Len(t, resp.Documents, 1)
	id := resp.Documents[0][globalconst.ID].(string)

	got := users.Doc(id).Get(false)
	require.Equal(t, globalconst.StatusOk, got.Status)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "ada", got.Documents[0]["name"])
}

func TestAdminDocRejectsMalformedIdentifier(t *testing.T) {
	a, _ := newAdmin(t)

	resp := a.Store().Collection("users").Doc("not-a-uuid").Get(false)
	assert.Equal(t, globalconst.StatusInvalidRequest, resp.Status)
	assert.Empty(t, resp.Documents)
}

func TestAdminQueryWhereChaining(t *testing.T) {
	a, _ := newAdmin(t)
	users := a.Store().Collection("users")

	users.Add(map[string]any{"name": "ada", "age": 30}, false)
	users.Add(map[string]any{"name": "bob", "age": 50}, false)
	users.Add(map[string]any{"name": "cyd", "age": 70}, false)

	resp := users.Query().
		Where("age", ">", 25).
		Where("age", "<", 60).
		Get(false)

	require.Equal(t, globalconst.StatusOk, resp.Status)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "ada", resp.Documents[0]["name"])
	assert.Equal(t, "bob", resp.Documents[1]["name"])
}

func TestAdminAllAddressesEveryDocument(t *testing.T) {
	a, _ := newAdmin(t)
	users := a.Store().Collection("users")

	users.Add(map[string]any{"n": 1}, false)
	users.Add(map[string]any{"n": 2}, false)

	resp := users.All().Update(map[string]any{"seen": true}, false)
	require.Equal(t, globalconst.StatusOk, resp.Status)
	assert.Len(t, resp.Documents, 2)

	all := users.All().Get(false)
	for _, doc := range all.Documents {
		assert.Equal(t, true, doc["seen"])
	}
}

func TestAdminTriggerControl(t *testing.T) {
	a, dispatcher := newAdmin(t)
	users := a.Store().Collection("users")

	fired := 0
	dispatcher.OnAdded("users", func(triggers.Event) { fired++ })

	users.Add(map[string]any{"silent": true}, false)
	users.Add(map[string]any{"loud": true}, true)

	dispatcher.Flush()
	assert.Equal(t, 1, fired, "triggers fire only when requested")
}

func TestAdminDelete(t *testing.T) {
	a, _ := newAdmin(t)
	users := a.Store().Collection("users")

	resp := users.Add(map[string]any{"name": "ada"}, false)
	id := resp.Documents[0][globalconst.ID].(string)

	del := users.Doc(id).Delete(false)
	require.Equal(t, globalconst.StatusOk, del.Status)
	require.Len(t, del.Documents, 1)

	left := users.All().Get(false)
	assert.Empty(t, left.Documents)
}

func TestFieldSentinels(t *testing.T) {
	assert.Equal(t, map[string]any{
		globalconst.FieldValueKey: globalconst.ServerTimestamp,
	}, ServerTimestamp())
	assert.Equal(t, map[string]any{
		globalconst.FieldValueKey: globalconst.ServerMillisTimestamp,
	}, ServerMillisTimestamp())
}
