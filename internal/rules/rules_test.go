package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseDefaultsToDenied(t *testing.T) {
	var res Response
	assert.False(t, res.Get)
	assert.False(t, res.Find)
	assert.False(t, res.Add)
	assert.False(t, res.Delete)
	assert.False(t, res.DeleteByFind)
	assert.False(t, res.Update)
	assert.False(t, res.UpdateByFind)
	assert.False(t, res.Set)
	assert.False(t, res.SetByFind)
}

func TestAllowReadSetsOnlyReadFlags(t *testing.T) {
	var res Response
	res.AllowRead()

	assert.True(t, res.Get)
	assert.True(t, res.Find)
	assert.False(t, res.Add)
	assert.False(t, res.Delete)
	assert.False(t, res.Set)
}

func TestAllowWriteSetsAllWriteFlags(t *testing.T) {
	var res Response
	res.AllowWrite()

	assert.False(t, res.Get)
	assert.False(t, res.Find)
	assert.True(t, res.Add)
	assert.True(t, res.Delete)
	assert.True(t, res.DeleteByFind)
	assert.True(t, res.Update)
	assert.True(t, res.UpdateByFind)
	assert.True(t, res.Set)
	assert.True(t, res.SetByFind)
}

func TestEvaluateRunsCollectionPolicy(t *testing.T) {
	registry := NewRegistry()
	registry.Register("users", func(req *Request, res *Response, _ *Side) error {
		if req.Auth == "owner" {
			res.AllowAll()
		}
		return nil
	})
	e := NewEvaluator(registry, nil, false)

	granted := e.Evaluate(&Request{Collection: "users", Auth: "owner"})
	assert.True(t, granted.Get)

	denied := e.Evaluate(&Request{Collection: "users", Auth: "stranger"})
	assert.False(t, denied.Get)
}

func TestEvaluateWithoutPolicyDeniesEverything(t *testing.T) {
	e := NewEvaluator(NewRegistry(), nil, false)

	res := e.Evaluate(&Request{Collection: "users"})
	assert.Equal(t, &Response{}, res)
}

func TestEvaluateFallsBackToDefaultPolicy(t *testing.T) {
	registry := NewRegistry()
	registry.SetDefault(func(_ *Request, res *Response, _ *Side) error {
		res.AllowRead()
		return nil
	})
	registry.Register("locked", func(_ *Request, _ *Response, _ *Side) error {
		return nil
	})
	e := NewEvaluator(registry, nil, false)

	assert.True(t, e.Evaluate(&Request{Collection: "anything"}).Find)
	assert.False(t, e.Evaluate(&Request{Collection: "locked"}).Find)
}

func TestPolicyErrorDeniesDespiteGrantedFlags(t *testing.T) {
	registry := NewRegistry()
	registry.Register("users", func(_ *Request, res *Response, _ *Side) error {
		res.AllowAll()
		return errors.New("changed my mind")
	})
	e := NewEvaluator(registry, nil, false)

	res := e.Evaluate(&Request{Collection: "users"})
	assert.Equal(t, &Response{}, res, "an erroring policy must deny everything")
}

func TestPolicyPanicIsContainedAndDenies(t *testing.T) {
	registry := NewRegistry()
	registry.Register("users", func(_ *Request, res *Response, _ *Side) error {
		res.AllowAll()
		panic("boom")
	})
	e := NewEvaluator(registry, nil, false)

	assert.NotPanics(t, func() {
		res := e.Evaluate(&Request{Collection: "users"})
		assert.Equal(t, &Response{}, res)
	})
}

func TestGrantIsFreshPerEvaluation(t *testing.T) {
	calls := 0
	registry := NewRegistry()
	registry.Register("users", func(_ *Request, res *Response, _ *Side) error {
		calls++
		// Grant only on the first call; later calls must not inherit it.
		if calls == 1 {
			res.AllowAll()
		}
		return nil
	})
	e := NewEvaluator(registry, nil, false)

	assert.True(t, e.Evaluate(&Request{Collection: "users"}).Get)
	assert.False(t, e.Evaluate(&Request{Collection: "users"}).Get)
}

func TestSideIsPassedToPolicy(t *testing.T) {
	side := &Side{Admin: "the-admin-handle"}
	registry := NewRegistry()
	registry.Register("users", func(_ *Request, res *Response, s *Side) error {
		if s.Admin == "the-admin-handle" {
			res.Get = true
		}
		return nil
	})
	e := NewEvaluator(registry, side, false)

	assert.True(t, e.Evaluate(&Request{Collection: "users"}).Get)
}
