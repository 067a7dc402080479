package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
)

func TestDecodeChange(t *testing.T) {
	t.Run("trigger payload", func(t *testing.T) {
		payload := `{"table" : "payments", "op" : "UPDATE", "id" : "9b2f0a4e-3d5c-4c7e-8a51-2f7b1c9d0e11", "at" : "2021-03-15T12:00:00.123456+00:00"}`
		ev, err := DecodeChange([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, TablePayments, ev.Table)
		assert.Equal(t, core.OpUpdate, ev.Op)
		assert.Equal(t, "9b2f0a4e-3d5c-4c7e-8a51-2f7b1c9d0e11", ev.ID)
		assert.True(t, ev.At.Equal(time.Date(2021, 3, 15, 12, 0, 0, 123456000, time.UTC)))
	})

	t.Run("missing time", func(t *testing.T) {
		ev, err := DecodeChange([]byte(`{"table": "users", "op": "DELETE", "id": "x"}`))
		require.NoError(t, err)
		assert.False(t, ev.At.IsZero())
	})

	t.Run("invalid", func(t *testing.T) {
		for _, payload := range []string{``, `not json`, `{}`, `{"table": "users"}`} {
			_, err := DecodeChange([]byte(payload))
			assert.Error(t, err, "payload %q", payload)
		}
	})
}
