package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnreadCount(t *testing.T) {
	uid := "3f0c5b3c-0a8f-4c55-8c39-6c1f6b1ea9d0"
	now := time.Now()

	tests := []struct {
		name     string
		messages []Message
		want     int
	}{
		{name: "empty", want: 0},
		{
			name: "unread direct messages",
			messages: []Message{
				{RecipientID: &uid},
				{RecipientID: &uid, ReadAt: &now},
				{RecipientID: &uid},
			},
			want: 2,
		},
		{
			name:     "announcements are never unread",
			messages: []Message{{}, {}, {RecipientID: &uid}},
			want:     1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UnreadCount(tc.messages))
		})
	}
}

func TestCleanRoom(t *testing.T) {
	room, err := cleanRoom("  General ")
	assert.NoError(t, err)
	assert.Equal(t, "general", room)

	for _, bad := range []string{"", "   ", "two words", "a/b"} {
		_, err = cleanRoom(bad)
		assert.Error(t, err, "room %q", bad)
	}
}
