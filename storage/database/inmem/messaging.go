package inmemdb

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/messaging"
)

type messagingRepository struct {
	messages     *table[messaging.Message]
	chatMessages *table[messaging.ChatMessage]
}

var _ messaging.Repository = (*messagingRepository)(nil)

func NewMessagingRepository(db *DB) *messagingRepository {
	return &messagingRepository{messages: db.messages, chatMessages: db.chatMessages}
}

func (r *messagingRepository) QueryMessages(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]messaging.Message, error) {
	return r.messages.Select(q), nil
}

func (r *messagingRepository) CountMessages(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.messages.Count(filter), nil
}

func (r *messagingRepository) GetMessage(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (messaging.Message, error) {
	return r.messages.Get(filter)
}

func (r *messagingRepository) CreateMessage(_ context.Context, m messaging.Message, _ ...core.DBExecutor) (messaging.Message, error) {
	return r.messages.Insert(m)
}

func (r *messagingRepository) UpdateMessage(_ context.Context, m messaging.Message, _ ...core.DBExecutor) (messaging.Message, error) {
	return r.messages.Update(m)
}

func (r *messagingRepository) DeleteMessages(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.messages.Delete(filter), nil
}

func (r *messagingRepository) QueryChatMessages(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]messaging.ChatMessage, error) {
	return r.chatMessages.Select(q), nil
}

func (r *messagingRepository) CreateChatMessage(_ context.Context, m messaging.ChatMessage, _ ...core.DBExecutor) (messaging.ChatMessage, error) {
	return r.chatMessages.Insert(m)
}
