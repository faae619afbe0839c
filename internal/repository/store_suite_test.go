package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"overseas-housing/internal/domain"
)

// runStoreSuite exercises any Store implementation against the same expectations.
func runStoreSuite(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("users", func(t *testing.T) {
		u := domain.User{ID: "u1", Name: "Berna", Email: "berna@student.com", PasswordHash: "$2a$hash", Role: domain.RoleStudent, CreatedAt: base}
		if err := store.Users.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		dup := u
		dup.ID = "u-dup"
		if err := store.Users.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for same email, got %v", err)
		}
		got, err := store.Users.GetByEmail(ctx, "berna@student.com")
		if err != nil {
			t.Fatalf("get by email: %v", err)
		}
		if got.ID != "u1" || got.Role != domain.RoleStudent || got.PasswordHash != "$2a$hash" {
			t.Fatalf("unexpected user: %+v", got)
		}
		if _, err := store.Users.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		consultant := domain.User{ID: "u2", Name: "Jordan", Email: "jordan@consultant.com", PasswordHash: "x", Role: domain.RoleConsultant, CreatedAt: base}
		if err := store.Users.Create(ctx, consultant); err != nil {
			t.Fatalf("create consultant: %v", err)
		}
		list, err := store.Users.ListByRole(ctx, domain.RoleConsultant)
		if err != nil {
			t.Fatalf("list by role: %v", err)
		}
		if len(list) != 1 || list[0].ID != "u2" {
			t.Fatalf("unexpected consultants: %+v", list)
		}
	})

	t.Run("conversations", func(t *testing.T) {
		convs := []domain.Conversation{
			{ID: "c1", ParticipantIDs: []string{"u1", "u2"}, CreatedAt: base},
			{ID: "c2", ParticipantIDs: []string{"u2", "u3"}, CreatedAt: base.Add(time.Minute)},
			{ID: "c3", ParticipantIDs: []string{"u1", "u2"}, CreatedAt: base.Add(2 * time.Minute)},
		}
		for _, c := range convs {
			if err := store.Conversations.Create(ctx, c); err != nil {
				t.Fatalf("create %s: %v", c.ID, err)
			}
		}
		got, err := store.Conversations.GetByID(ctx, "c2")
		if err != nil {
			t.Fatalf("get c2: %v", err)
		}
		if len(got.ParticipantIDs) != 2 || got.ParticipantIDs[0] != "u2" || got.ParticipantIDs[1] != "u3" {
			t.Fatalf("unexpected participants: %+v", got.ParticipantIDs)
		}
		if _, err := store.Conversations.GetByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		mine, err := store.Conversations.ListByParticipant(ctx, "u1")
		if err != nil {
			t.Fatalf("list by participant: %v", err)
		}
		if len(mine) != 2 || mine[0].ID != "c1" || mine[1].ID != "c3" {
			t.Fatalf("unexpected conversations for u1: %+v", mine)
		}
		none, err := store.Conversations.ListByParticipant(ctx, "u9")
		if err != nil {
			t.Fatalf("list for stranger: %v", err)
		}
		if len(none) != 0 {
			t.Fatalf("expected no conversations, got %+v", none)
		}
	})

	t.Run("messages", func(t *testing.T) {
		same := base.Add(time.Hour)
		msgs := []domain.Message{
			{ID: "m-b", ConversationID: "c1", SenderID: "u2", Text: "first", CreatedAt: same},
			{ID: "m-a", ConversationID: "c1", SenderID: "u1", Text: "second", CreatedAt: same},
			{ID: "m-c", ConversationID: "c1", SenderID: "u1", Text: "third", CreatedAt: same.Add(time.Second)},
			{ID: "m-x", ConversationID: "c2", SenderID: "u3", Text: "elsewhere", CreatedAt: same},
		}
		for _, m := range msgs {
			if err := store.Messages.Create(ctx, m); err != nil {
				t.Fatalf("create %s: %v", m.ID, err)
			}
		}
		first, err := store.Messages.ListByConversationID(ctx, "c1")
		if err != nil {
			t.Fatalf("list messages: %v", err)
		}
		want := []string{"m-b", "m-a", "m-c"}
		if len(first) != len(want) {
			t.Fatalf("expected %d messages, got %d", len(want), len(first))
		}
		for i, id := range want {
			if first[i].ID != id {
				t.Fatalf("position %d: want %s got %s", i, id, first[i].ID)
			}
		}
		if !first[2].CreatedAt.Equal(same.Add(time.Second)) {
			t.Fatalf("timestamp not preserved: %v", first[2].CreatedAt)
		}

		second, err := store.Messages.ListByConversationID(ctx, "c1")
		if err != nil {
			t.Fatalf("second list: %v", err)
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Fatalf("list not stable at %d", i)
			}
		}
	})
}
