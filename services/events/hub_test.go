package events

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
	logsvc "github.com/trezcool/portal/services/logger"
)

func newHub() *Hub {
	return NewHub(logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Debug: true, TestMode: true}))
}

func TestHub_PublishFiltersTables(t *testing.T) {
	hub := newHub()
	all, unsubAll := hub.Subscribe()
	defer unsubAll()
	grades, unsubGrades := hub.Subscribe("grades")
	defer unsubGrades()

	hub.Publish(core.ChangeEvent{Table: "courses", Op: core.OpInsert, ID: "c1"})
	hub.Publish(core.ChangeEvent{Table: "grades", Op: core.OpUpdate, ID: "g1"})
	hub.Publish(core.ChangeEvent{Op: core.OpResync})

	require.Len(t, all, 3)
	assert.Equal(t, "c1", (<-all).ID)

	require.Len(t, grades, 2)
	assert.Equal(t, "g1", (<-grades).ID)
	assert.Equal(t, core.OpResync, (<-grades).Op)
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := newHub()
	hub.buffer = 2
	ch, unsub := hub.Subscribe()
	defer unsub()

	for i := 0; i < 5; i++ {
		hub.Publish(core.ChangeEvent{Table: "messages", Op: core.OpInsert})
	}
	assert.Len(t, ch, 2)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := newHub()
	ch, unsub := hub.Subscribe("payments")
	assert.Equal(t, 1, hub.Subscribers())

	unsub()
	unsub() // idempotent
	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	hub.Publish(core.ChangeEvent{Table: "payments", Op: core.OpDelete}) // no panic on closed channels
}

func TestHub_Close(t *testing.T) {
	hub := newHub()
	ch, unsub := hub.Subscribe()
	hub.Close()
	unsub()

	_, open := <-ch
	assert.False(t, open)

	ch, _ = hub.Subscribe()
	_, open = <-ch
	assert.False(t, open, "subscribing to a closed hub returns a closed channel")
}
