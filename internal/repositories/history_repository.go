package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-engine/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// HistoryRepository persists conversation and message history so rooms can
// be rebuilt after a restart. It is an optional collaborator: the engines
// run from seed data when no database is configured.
type HistoryRepository interface {
	LoadConversations(ctx context.Context) ([]models.Conversation, error)
	LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	SaveConversation(ctx context.Context, conv models.Conversation) error
	DeleteConversation(ctx context.Context, conversationID string) error
	SaveMessage(ctx context.Context, msg models.Message) error
	UpdateMessageStatus(ctx context.Context, messageID string, status models.Status) error
	DeleteMessage(ctx context.Context, messageID string) error
}

// HistoryRepo is a sqlx implementation of HistoryRepository.
type HistoryRepo struct {
	db *sqlx.DB
}

// NewHistoryRepo constructs a HistoryRepo.
func NewHistoryRepo(db *sqlx.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

type messageRow struct {
	ID              string       `db:"id"`
	ConversationID  string       `db:"conversation_id"`
	SenderID        string       `db:"sender_id"`
	Text            string       `db:"text"`
	Attachments     []byte       `db:"attachments"`
	CreatedAt       sql.NullTime `db:"created_at"`
	Read            bool         `db:"read"`
	Status          string       `db:"status"`
	RecallableUntil sql.NullTime `db:"recallable_until"`
}

func (r messageRow) toModel() (models.Message, error) {
	msg := models.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Text:           r.Text,
		Read:           r.Read,
		Status:         models.Status(r.Status),
	}
	if r.CreatedAt.Valid {
		msg.CreatedAt = r.CreatedAt.Time
	}
	if r.RecallableUntil.Valid {
		msg.RecallableUntil = r.RecallableUntil.Time
	}
	if len(r.Attachments) > 0 {
		if err := json.Unmarshal(r.Attachments, &msg.Attachments); err != nil {
			return models.Message{}, err
		}
	}
	return msg, nil
}

// LoadConversations returns all archived conversations with their last
// message cache rebuilt from the message table.
func (r *HistoryRepo) LoadConversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs,
		`SELECT id, nickname, avatar_url, pinned, unread_count, updated_at FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}

	for i := range convs {
		var row messageRow
		err := r.db.GetContext(ctx, &row,
			`SELECT id, conversation_id, sender_id, text, attachments, created_at, read, status, recallable_until
             FROM messages WHERE conversation_id=$1 ORDER BY created_at DESC LIMIT 1`, convs[i].ID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		msg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		convs[i].LastMessage = &msg
	}
	return convs, nil
}

// LoadMessages returns a conversation's messages in CreatedAt order.
func (r *HistoryRepo) LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, conversation_id, sender_id, text, attachments, created_at, read, status, recallable_until
         FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// SaveConversation upserts a conversation.
func (r *HistoryRepo) SaveConversation(ctx context.Context, conv models.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, nickname, avatar_url, pinned, unread_count, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (id) DO UPDATE SET nickname=EXCLUDED.nickname, avatar_url=EXCLUDED.avatar_url,
            pinned=EXCLUDED.pinned, unread_count=EXCLUDED.unread_count, updated_at=EXCLUDED.updated_at`,
		conv.ID, conv.Nickname, conv.AvatarURL, conv.Pinned, conv.UnreadCount, conv.UpdatedAt)
	return err
}

// DeleteConversation removes a conversation and, through the foreign key,
// its messages.
func (r *HistoryRepo) DeleteConversation(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id=$1`, conversationID)
	return err
}

// SaveMessage upserts a message.
func (r *HistoryRepo) SaveMessage(ctx context.Context, msg models.Message) error {
	var attachments []byte
	if len(msg.Attachments) > 0 {
		var err error
		attachments, err = json.Marshal(msg.Attachments)
		if err != nil {
			return err
		}
	}

	recallable := sql.NullTime{Time: msg.RecallableUntil, Valid: !msg.RecallableUntil.IsZero()}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, text, attachments, created_at, read, status, recallable_until)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, attachments=EXCLUDED.attachments,
            read=EXCLUDED.read, status=EXCLUDED.status`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Text, attachments, msg.CreatedAt, msg.Read, string(msg.Status), recallable)
	return err
}

// UpdateMessageStatus persists a status transition.
func (r *HistoryRepo) UpdateMessageStatus(ctx context.Context, messageID string, status models.Status) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET status=$1 WHERE id=$2`, string(status), messageID)
	return err
}

// DeleteMessage removes a message.
func (r *HistoryRepo) DeleteMessage(ctx context.Context, messageID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	return err
}
