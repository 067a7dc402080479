package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/messaging"
)

func TestColumnMap(t *testing.T) {
	due := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	p := billing.Payment{ID: "p1", StudentID: "s1", Amount: 1500, Status: billing.StatusPending, DueAt: due}

	cols := ColumnMap(&p)
	assert.Len(t, cols, len(billing.Columns))
	assert.Equal(t, "p1", cols["id"])
	assert.Equal(t, int64(1500), cols["amount"])
	assert.Equal(t, due, cols["due_at"])
	assert.Nil(t, cols["paid_at"])
	assert.Equal(t, cols, ColumnMap(p))
}

func TestColumnValue(t *testing.T) {
	uid := "u1"
	m := messaging.Message{ID: "m1", RecipientID: &uid}

	val, ok := ColumnValue(m, "recipient_id")
	require.True(t, ok)
	assert.Equal(t, "u1", val)

	val, ok = ColumnValue(&m, "read_at")
	require.True(t, ok)
	assert.Nil(t, val)

	_, ok = ColumnValue(m, "unknown")
	assert.False(t, ok)
}
