package domain

import (
	"slices"
	"time"
)

// Conversation es un canal persistente con un conjunto fijo de participantes.
type Conversation struct {
	ID             string    `json:"id"`
	ParticipantIDs []string  `json:"participantIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HasParticipant indica si userID pertenece al conjunto de participantes.
func (c Conversation) HasParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	return slices.Contains(c.ParticipantIDs, userID)
}
