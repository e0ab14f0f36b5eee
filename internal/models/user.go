package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered chat user. Credential issuance lives
// outside this service; we only keep the identity record that tokens
// resolve to.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
