package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a named multi-member conversation. The admin is always a
// member. A group with zero members does not exist: removing the last
// member deletes it, and removing the admin promotes the first
// remaining member.
type Group struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	AdminID   uuid.UUID   `json:"admin_id"`
	Members   []uuid.UUID `json:"members"`
	Avatar    string      `json:"avatar,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsMember reports whether userID is in the member list.
func (g *Group) IsMember(userID uuid.UUID) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// MemberSnapshot returns a copy of the member list. Fan-out iterates
// the snapshot so membership edits during delivery cannot affect it.
func (g *Group) MemberSnapshot() []uuid.UUID {
	out := make([]uuid.UUID, len(g.Members))
	copy(out, g.Members)
	return out
}

// Summary is the trimmed group shape attached to pushed events.
type Summary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar,omitempty"`
}

// Summary returns the event-sized view of the group.
func (g *Group) Summary() Summary {
	return Summary{ID: g.ID, Name: g.Name, Avatar: g.Avatar}
}
