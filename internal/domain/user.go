package domain

import (
	"strings"
	"time"
)

// Role identifica el tipo de cuenta dentro del marketplace.
type Role string

const (
	RoleStudent        Role = "student"
	RoleConsultant     Role = "consultant"
	RoleRepresentative Role = "representative"
	RoleOwner          Role = "owner"
)

// ParseRole normaliza y valida un rol recibido del cliente.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleStudent, RoleConsultant, RoleRepresentative, RoleOwner:
		return r, true
	}
	return "", false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
