package sqlxrepos

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/messaging"
	"github.com/trezcool/portal/storage/database"
)

type messagingRepository struct {
	repo
	messages     Table
	chatMessages Table
}

var _ messaging.Repository = (*messagingRepository)(nil)

func NewMessagingRepository(exec core.DBExecutor) *messagingRepository {
	return &messagingRepository{
		repo:         repo{exec: exec},
		messages:     Table{Name: database.TableMessages, NotFound: messaging.ErrNotFound},
		chatMessages: Table{Name: database.TableChatMessages, NotFound: messaging.ErrNotFound},
	}
}

func (r messagingRepository) QueryMessages(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]messaging.Message, error) {
	messages := make([]messaging.Message, 0)
	err := r.messages.Select(ctx, r.getExec(exec), q, &messages)
	return messages, err
}

func (r messagingRepository) CountMessages(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.messages.Count(ctx, r.getExec(exec), filter)
}

func (r messagingRepository) GetMessage(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (messaging.Message, error) {
	var m messaging.Message
	err := r.messages.Get(ctx, r.getExec(exec), filter, &m)
	return m, err
}

func (r messagingRepository) CreateMessage(ctx context.Context, m messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	var created messaging.Message
	err := r.messages.Insert(ctx, r.getExec(exec), m, &created)
	return created, err
}

func (r messagingRepository) UpdateMessage(ctx context.Context, m messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	var updated messaging.Message
	err := r.messages.Update(ctx, r.getExec(exec), m, &updated)
	return updated, err
}

func (r messagingRepository) DeleteMessages(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.messages.Delete(ctx, r.getExec(exec), filter)
}

func (r messagingRepository) QueryChatMessages(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]messaging.ChatMessage, error) {
	messages := make([]messaging.ChatMessage, 0)
	err := r.chatMessages.Select(ctx, r.getExec(exec), q, &messages)
	return messages, err
}

func (r messagingRepository) CreateChatMessage(ctx context.Context, m messaging.ChatMessage, exec ...core.DBExecutor) (messaging.ChatMessage, error) {
	var created messaging.ChatMessage
	err := r.chatMessages.Insert(ctx, r.getExec(exec), m, &created)
	return created, err
}
