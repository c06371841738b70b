package triggers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbacksFireInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		d.OnAdded("users", func(Event) {
			order = append(order, i)
		})
	}

	d.Dispatch(Event{Kind: KindAdded, Collection: "users"})
	d.Flush()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestExactCollectionMatchOnly(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var fired []string
	d.OnAdded("users", func(Event) { fired = append(fired, "users") })
	d.OnAdded("Users", func(Event) { fired = append(fired, "Users") })
	d.OnDeleted("users", func(Event) { fired = append(fired, "users-deleted") })

	d.Dispatch(Event{Kind: KindAdded, Collection: "users"})
	d.Flush()

	assert.Equal(t, []string{"users"}, fired)
}

func TestEventsDeliverInDispatchOrder(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var ids []string
	d.OnUpdated("docs", func(evt Event) { ids = append(ids, evt.ID) })

	for _, id := range []string{"a", "b", "c"} {
		d.Dispatch(Event{Kind: KindUpdated, Collection: "docs", ID: id})
	}
	d.Flush()

	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestPanickingCallbackDoesNotStopOthers(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var survived bool
	d.OnDeleted("users", func(Event) { panic("bad callback") })
	d.OnDeleted("users", func(Event) { survived = true })

	d.Dispatch(Event{Kind: KindDeleted, Collection: "users"})
	d.Flush()

	assert.True(t, survived)

	// The worker must still be alive for later events.
	survived = false
	d.Dispatch(Event{Kind: KindDeleted, Collection: "users"})
	d.Flush()
	assert.True(t, survived)
}

func TestEventCarriesPayload(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var got Event
	d.OnUpdated("users", func(evt Event) { got = evt })

	evt := Event{
		Kind:       KindUpdated,
		Collection: "users",
		ID:         "doc-1",
		Document:   map[string]any{"x": 2},
		Before:     map[string]any{"x": 1},
		Auth:       "token",
	}
	d.Dispatch(evt)
	d.Flush()

	assert.Equal(t, evt, got)
}

func TestCloseDrainsPendingEvents(t *testing.T) {
	d := NewDispatcher()

	count := 0
	d.OnAdded("users", func(Event) { count++ })
	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Kind: KindAdded, Collection: "users"})
	}

	d.Close()
	assert.Equal(t, 10, count)
}

func TestDispatchAfterCloseDoesNotPanic(t *testing.T) {
	d := NewDispatcher()
	d.Close()

	assert.NotPanics(t, func() {
		d.Dispatch(Event{Kind: KindAdded, Collection: "users"})
	})
	assert.NotPanics(t, d.Flush)
}
