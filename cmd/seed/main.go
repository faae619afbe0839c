package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"overseas-housing/internal/config"
	"overseas-housing/internal/domain"
	"overseas-housing/internal/repository"
)

const demoPassword = "123456"

var demoUsers = []domain.User{
	{ID: "u1", Name: "Berna Cetinkaya", Email: "berna@student.com", Role: domain.RoleStudent},
	{ID: "u2", Name: "Jordan Lee", Email: "jordan@consultant.com", Role: domain.RoleConsultant},
	{ID: "u5", Name: "Taylor Brooks", Email: "taylor@consultant.com", Role: domain.RoleConsultant},
	{ID: "u6", Name: "Casey Morgan", Email: "casey@consultant.com", Role: domain.RoleConsultant},
	{ID: "u3", Name: "Alice Cooper", Email: "alice@rep.com", Role: domain.RoleRepresentative},
	{ID: "u4", Name: "Anna Bauer", Email: "anna@owner.com", Role: domain.RoleOwner},
	{ID: "u7", Name: "Michael Roth", Email: "michael@owner.com", Role: domain.RoleOwner},
	{ID: "u8", Name: "Sofia Marino", Email: "sofia@owner.com", Role: domain.RoleOwner},
	{ID: "u9", Name: "Lucas Weber", Email: "lucas@owner.com", Role: domain.RoleOwner},
}

const (
	demoConversationID = "c1"
	demoOpeningText    = "Hi Berna, I got your criteria. I found several homes for you."
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer backend.Close()

	if err := seed(ctx, backend.Store, logger, time.Now().UTC()); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed complete")
}

// seed inserta los usuarios demo y la conversación c1; las filas existentes se respetan.
func seed(ctx context.Context, store repository.Store, logger *zap.Logger, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for i, u := range demoUsers {
		if _, err := store.Users.GetByID(ctx, u.ID); err == nil {
			logger.Info("user exists, skipping", zap.String("user_id", u.ID))
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		u.PasswordHash = string(hash)
		u.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		if err := store.Users.Create(ctx, u); err != nil {
			return err
		}
		logger.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	}

	if _, err := store.Conversations.GetByID(ctx, demoConversationID); err == nil {
		logger.Info("conversation exists, skipping", zap.String("conversation_id", demoConversationID))
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	conv := domain.Conversation{
		ID:             demoConversationID,
		ParticipantIDs: []string{"u1", "u2"},
		CreatedAt:      now,
	}
	if err := store.Conversations.Create(ctx, conv); err != nil {
		return err
	}
	return store.Messages.Create(ctx, domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       "u2",
		Text:           demoOpeningText,
		CreatedAt:      now,
	})
}
