package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"overseas-housing/internal/domain"
)

// Formato de ancho fijo: el orden lexicográfico de la columna TEXT coincide con el orden temporal.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(v string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

// SqliteUserRepository implementa UserRepository sobre database/sql + modernc sqlite.
type SqliteUserRepository struct {
	db *sql.DB
}

func NewSqliteUserRepository(db *sql.DB) *SqliteUserRepository {
	return &SqliteUserRepository{db: db}
}

func (r *SqliteUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		formatSQLiteTime(user.CreatedAt),
	)
	return translateErr(err)
}

func (r *SqliteUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = ?`
	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SqliteUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?`
	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *SqliteUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE role = ?
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		roleValue string
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &roleValue, &createdAt); err != nil {
		return domain.User{}, translateErr(err)
	}
	ts, err := parseSQLiteTime(createdAt)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(roleValue)
	u.CreatedAt = ts
	return u, nil
}

// SqliteConversationRepository guarda los participantes como arreglo JSON.
type SqliteConversationRepository struct {
	db *sql.DB
}

func NewSqliteConversationRepository(db *sql.DB) *SqliteConversationRepository {
	return &SqliteConversationRepository{db: db}
}

func (r *SqliteConversationRepository) Create(ctx context.Context, conv domain.Conversation) error {
	participants, err := json.Marshal(conv.ParticipantIDs)
	if err != nil {
		return err
	}
	const query = `INSERT INTO conversations (id, participant_ids, created_at) VALUES (?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, conv.ID, string(participants), formatSQLiteTime(conv.CreatedAt))
	return translateErr(err)
}

func (r *SqliteConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `SELECT id, participant_ids, created_at FROM conversations WHERE id = ?`
	return scanSQLiteConversation(r.db.QueryRowContext(ctx, query, id))
}

func (r *SqliteConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	const query = `
		SELECT c.id, c.participant_ids, c.created_at
		FROM conversations c
		WHERE EXISTS (SELECT 1 FROM json_each(c.participant_ids) p WHERE p.value = ?)
		ORDER BY c.created_at ASC, c.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convs := []domain.Conversation{}
	for rows.Next() {
		conv, err := scanSQLiteConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return convs, nil
}

func scanSQLiteConversation(row rowScanner) (domain.Conversation, error) {
	var (
		conv         domain.Conversation
		participants string
		createdAt    string
	)
	if err := row.Scan(&conv.ID, &participants, &createdAt); err != nil {
		return domain.Conversation{}, translateErr(err)
	}
	if err := json.Unmarshal([]byte(participants), &conv.ParticipantIDs); err != nil {
		return domain.Conversation{}, fmt.Errorf("decode participants of %s: %w", conv.ID, err)
	}
	ts, err := parseSQLiteTime(createdAt)
	if err != nil {
		return domain.Conversation{}, err
	}
	conv.CreatedAt = ts
	return conv, nil
}

type SqliteMessageRepository struct {
	db *sql.DB
}

func NewSqliteMessageRepository(db *sql.DB) *SqliteMessageRepository {
	return &SqliteMessageRepository{db: db}
}

func (r *SqliteMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, conversation_id, sender_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.ConversationID,
		message.SenderID,
		message.Text,
		formatSQLiteTime(message.CreatedAt),
	)
	return translateErr(err)
}

func (r *SqliteMessageRepository) ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, sender_id, text, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			msg       domain.Message
			createdAt string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &createdAt); err != nil {
			return nil, err
		}
		ts, err := parseSQLiteTime(createdAt)
		if err != nil {
			return nil, err
		}
		msg.CreatedAt = ts
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
