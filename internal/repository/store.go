package repository

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store agrupa los repositorios del slice de mensajería sobre un mismo motor.
type Store struct {
	Users         UserRepository
	Conversations ConversationRepository
	Messages      MessageRepository
}

func NewPgStore(pool *pgxpool.Pool) Store {
	return Store{
		Users:         NewPgUserRepository(pool),
		Conversations: NewPgConversationRepository(pool),
		Messages:      NewPgMessageRepository(pool),
	}
}

func NewSqliteStore(db *sql.DB) Store {
	return Store{
		Users:         NewSqliteUserRepository(db),
		Conversations: NewSqliteConversationRepository(db),
		Messages:      NewSqliteMessageRepository(db),
	}
}
