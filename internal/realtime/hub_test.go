package realtime

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.DiscardHandler))
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := testHub()
	c := hub.Subscribe("user-1")
	defer hub.Unsubscribe(c)

	hub.Publish("user-1", Event{Table: TableUserProgress, Type: "UPDATE"})

	select {
	case ev := <-c.Outbound:
		assert.Equal(t, TableUserProgress, ev.Table)
		assert.Equal(t, "UPDATE", ev.Type)
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestHub_PublishIsScopedToUser(t *testing.T) {
	hub := testHub()
	mine := hub.Subscribe("user-1")
	theirs := hub.Subscribe("user-2")
	defer hub.Unsubscribe(mine)
	defer hub.Unsubscribe(theirs)

	hub.Publish("user-1", Event{Table: TableUserLessons, Type: "INSERT"})

	assert.Len(t, mine.Outbound, 1)
	assert.Len(t, theirs.Outbound, 0)
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := testHub()
	c := hub.Subscribe("user-1")
	defer hub.Unsubscribe(c)

	for i := 0; i < cap(c.Outbound)+5; i++ {
		hub.Publish("user-1", Event{Table: TableUserProgress, Type: "UPDATE"})
	}

	assert.Len(t, c.Outbound, cap(c.Outbound))
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := testHub()
	c := hub.Subscribe("user-1")
	hub.Unsubscribe(c)

	hub.Publish("user-1", Event{Table: TableUserProgress, Type: "UPDATE"})
	assert.Len(t, c.Outbound, 0)

	require.NotPanics(t, func() { hub.Unsubscribe(c) })
}

func TestHub_MultipleClientsSameUser(t *testing.T) {
	hub := testHub()
	a := hub.Subscribe("user-1")
	b := hub.Subscribe("user-1")
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish("user-1", Event{Table: TableUserAchievements, Type: "INSERT"})

	assert.Len(t, a.Outbound, 1)
	assert.Len(t, b.Outbound, 1)
}
