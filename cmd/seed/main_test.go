package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"overseas-housing/internal/db"
	"overseas-housing/internal/domain"
	"overseas-housing/internal/repository"
)

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateSQLite(ctx, conn))
	store := repository.NewSqliteStore(conn)

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, seed(ctx, store, zap.NewNop(), now))
	require.NoError(t, seed(ctx, store, zap.NewNop(), now.Add(time.Hour)))

	owners, err := store.Users.ListByRole(ctx, domain.RoleOwner)
	require.NoError(t, err)
	assert.Len(t, owners, 4)

	berna, err := store.Users.GetByEmail(ctx, "berna@student.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(berna.PasswordHash), []byte(demoPassword)))

	convs, err := store.Conversations.ListByParticipant(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, []string{"u1", "u2"}, convs[0].ParticipantIDs)

	msgs, err := store.Messages.ListByConversationID(ctx, demoConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "u2", msgs[0].SenderID)
	assert.Equal(t, demoOpeningText, msgs[0].Text)
}
