package messaging

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
)

const DefaultChatHistory = 50

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("message")
	ErrNotRecipient = errors.New("only the recipient can mark a message as read")
	ErrInvalidRoom  = errors.New("invalid chat room")
)

type (
	Repository interface {
		QueryMessages(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Message, error)
		CountMessages(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		GetMessage(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Message, error)
		CreateMessage(ctx context.Context, m Message, exec ...core.DBExecutor) (Message, error)
		UpdateMessage(ctx context.Context, m Message, exec ...core.DBExecutor) (Message, error)
		DeleteMessages(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)

		QueryChatMessages(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]ChatMessage, error)
		CreateChatMessage(ctx context.Context, m ChatMessage, exec ...core.DBExecutor) (ChatMessage, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Send(ctx context.Context, senderID string, nm NewMessage) (Message, error) {
	m := Message{
		ID:        uuid.New().String(),
		SenderID:  senderID,
		Subject:   nm.Subject,
		Body:      nm.Body,
		CreatedAt: time.Now().UTC(),
	}
	if nm.RecipientID != "" {
		m.RecipientID = &nm.RecipientID
	}
	return svc.repo.CreateMessage(ctx, m)
}

func (svc *Service) Get(ctx context.Context, id string) (Message, error) {
	return svc.repo.GetMessage(ctx, core.Filter{"id": id})
}

func (svc *Service) Query(ctx context.Context, q core.Query) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, q.Only(MessageColumns...))
}

func (svc *Service) Count(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountMessages(ctx, core.Query{Filter: filter}.Only(MessageColumns...).Filter)
}

// Inbox returns the messages sent to the user along with the announcements, newest first.
func (svc *Service) Inbox(ctx context.Context, userID string) ([]Message, error) {
	ordering := []core.DBOrdering{{Field: "created_at", Ascending: false}}
	direct, err := svc.repo.QueryMessages(ctx, core.Query{
		Filter:   core.Filter{"recipient_id": userID},
		Ordering: ordering,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying direct messages")
	}
	announcements, err := svc.repo.QueryMessages(ctx, core.Query{
		Filter:   core.Filter{"recipient_id": nil},
		Ordering: ordering,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}

	inbox := append(direct, announcements...)
	sort.SliceStable(inbox, func(i, j int) bool {
		return inbox[i].CreatedAt.After(inbox[j].CreatedAt)
	})
	return inbox, nil
}

func (svc *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	direct, err := svc.repo.QueryMessages(ctx, core.Query{Filter: core.Filter{"recipient_id": userID, "read_at": nil}})
	if err != nil {
		return 0, errors.Wrap(err, "querying unread messages")
	}
	return UnreadCount(direct), nil
}

// MarkRead marks a direct message as read by its recipient. Marking twice keeps the first read time.
func (svc *Service) MarkRead(ctx context.Context, m Message, userID string) (Message, error) {
	if m.RecipientID == nil || *m.RecipientID != userID {
		return Message{}, ErrNotRecipient
	}
	if m.ReadAt != nil {
		return m, nil
	}
	now := time.Now().UTC()
	m.ReadAt = &now
	return svc.repo.UpdateMessage(ctx, m)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteMessages(ctx, core.Filter{"id": ids})
}

func cleanRoom(room string) (string, error) {
	room = core.CleanString(room, true /* lower */)
	if room == "" || len(room) > 100 || strings.ContainsAny(room, " /") {
		return "", core.NewValidationError(ErrInvalidRoom, core.FieldError{Field: "room", Error: ErrInvalidRoom.Error()})
	}
	return room, nil
}

func (svc *Service) PostChat(ctx context.Context, room, senderID string, nc NewChatMessage) (ChatMessage, error) {
	room, err := cleanRoom(room)
	if err != nil {
		return ChatMessage{}, err
	}
	return svc.repo.CreateChatMessage(ctx, ChatMessage{
		ID:        uuid.New().String(),
		Room:      room,
		SenderID:  senderID,
		Body:      nc.Body,
		CreatedAt: time.Now().UTC(),
	})
}

// ChatHistory returns the last `limit` messages of a room, oldest first.
func (svc *Service) ChatHistory(ctx context.Context, room string, limit uint64) ([]ChatMessage, error) {
	room, err := cleanRoom(room)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultChatHistory
	}
	msgs, err := svc.repo.QueryChatMessages(ctx, core.Query{
		Filter:   core.Filter{"room": room},
		Ordering: []core.DBOrdering{{Field: "created_at", Ascending: false}},
		Limit:    limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying chat messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
