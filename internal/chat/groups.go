package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
)

// ErrAlreadyMember rejects adding a user who is already in the group.
var ErrAlreadyMember = errors.New("user is already a member of the group")

const maxGroupNameRunes = 100

// sanitizeGroupName trims whitespace, strips control characters and
// truncates on rune boundaries so a multi-byte name stays valid UTF-8.
func sanitizeGroupName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if utf8.RuneCountInString(name) > maxGroupNameRunes {
		name = string([]rune(name)[:maxGroupNameRunes])
	}
	return name
}

// CreateGroup creates a group with the creator as admin and first
// member. Every listed member must exist; duplicates are dropped.
func (s *Service) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID, avatar string) (*models.Group, error) {
	name = sanitizeGroupName(name)
	if name == "" {
		return nil, errors.New("group name is required")
	}

	members := []uuid.UUID{creatorID}
	seen := map[uuid.UUID]bool{creatorID: true}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		if _, err := s.store.FindUserByID(ctx, id); err != nil {
			return nil, fmt.Errorf("resolve member %s: %w", id, err)
		}
		seen[id] = true
		members = append(members, id)
	}

	now := time.Now().UTC()
	group := &models.Group{
		ID:        uuid.New(),
		Name:      name,
		AdminID:   creatorID,
		Members:   members,
		Avatar:    avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("save group: %w", err)
	}

	s.notifier.NotifyNewGroup(group, creatorID)
	return group, nil
}

// AddMember adds a user to a group. Only the admin may add members.
func (s *Service) AddMember(ctx context.Context, actorID, groupID, userID uuid.UUID) (*models.Group, error) {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	if group.AdminID != actorID {
		return nil, ErrForbidden
	}
	if group.IsMember(userID) {
		return nil, ErrAlreadyMember
	}
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	group.Members = append(group.Members, userID)
	group.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("save group: %w", err)
	}

	s.notifier.NotifyAddedToGroup(group, userID)
	s.notifier.NotifyGroupUpdated(group, actorID, userID)
	return group, nil
}

// RemoveMember removes a user from a group. The admin may remove
// anyone; any member may remove themselves (leave).
//
// Invariants: a group with zero members is deleted entirely. If the
// removed member was the admin and members remain, the first remaining
// member becomes admin. Returns nil when the group was deleted.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, userID uuid.UUID) (*models.Group, error) {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	if actorID != group.AdminID && actorID != userID {
		return nil, ErrForbidden
	}
	if !group.IsMember(userID) {
		return nil, ErrNotMember
	}

	members := group.Members[:0:0]
	for _, m := range group.Members {
		if m != userID {
			members = append(members, m)
		}
	}
	group.Members = members

	if len(group.Members) == 0 {
		if err := s.store.DeleteGroup(ctx, groupID); err != nil {
			return nil, fmt.Errorf("delete group: %w", err)
		}
		s.notifier.NotifyRemovedFromGroup(groupID, userID)
		return nil, nil
	}

	if group.AdminID == userID {
		group.AdminID = group.Members[0]
	}
	group.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("save group: %w", err)
	}

	s.notifier.NotifyRemovedFromGroup(groupID, userID)
	s.notifier.NotifyGroupUpdated(group, actorID, userID)
	return group, nil
}

// UpdateGroup renames a group or changes its avatar. Admin only.
func (s *Service) UpdateGroup(ctx context.Context, actorID, groupID uuid.UUID, name, avatar string) (*models.Group, error) {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	if group.AdminID != actorID {
		return nil, ErrForbidden
	}

	if name = sanitizeGroupName(name); name != "" {
		group.Name = name
	}
	if avatar != "" {
		group.Avatar = avatar
	}
	group.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("save group: %w", err)
	}

	s.notifier.NotifyGroupUpdated(group, actorID)
	return group, nil
}
