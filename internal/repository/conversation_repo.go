package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"overseas-housing/internal/domain"
)

// ConversationRepository persiste conversaciones; sólo inserta, nunca actualiza.
type ConversationRepository interface {
	Create(ctx context.Context, conv domain.Conversation) error
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
}

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) Create(ctx context.Context, conv domain.Conversation) error {
	const query = `
		INSERT INTO conversations (id, participant_ids, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.pool.Exec(ctx, query, conv.ID, conv.ParticipantIDs, conv.CreatedAt)
	return translateErr(err)
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `
		SELECT id, participant_ids, created_at
		FROM conversations
		WHERE id = $1
	`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(&conv.ID, &conv.ParticipantIDs, &conv.CreatedAt)
	if err != nil {
		return domain.Conversation{}, translateErr(err)
	}
	return conv, nil
}

func (r *PgConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	const query = `
		SELECT id, participant_ids, created_at
		FROM conversations
		WHERE $1 = ANY(participant_ids)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convs := []domain.Conversation{}
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.ParticipantIDs, &conv.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return convs, nil
}
