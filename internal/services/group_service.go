package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kopilka/internal/core"
	"kopilka/internal/storage"

	"github.com/google/uuid"
)

const maxGroupName = 64

// GroupService manages shared expense groups. A user belongs to at most one
// group; while in it, reports and budgets use the group scope.
type GroupService struct {
	storage *storage.SQLiteRepository
}

func NewGroupService(storage *storage.SQLiteRepository) *GroupService {
	return &GroupService{storage: storage}
}

func (s *GroupService) Create(ctx context.Context, user core.User, name string) (core.Group, error) {
	if user.GroupID != 0 {
		return core.Group{}, ErrAlreadyInGroup
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Group{}, fmt.Errorf("%w: name is required", ErrInvalidGroupName)
	}
	if len([]rune(name)) > maxGroupName {
		return core.Group{}, fmt.Errorf("%w: at most %d characters", ErrInvalidGroupName, maxGroupName)
	}
	return s.storage.CreateGroup(ctx, name, user.ID, newInviteCode())
}

func (s *GroupService) Join(ctx context.Context, user core.User, code string) (core.Group, error) {
	if user.GroupID != 0 {
		return core.Group{}, ErrAlreadyInGroup
	}
	g, err := s.storage.GroupByInvite(ctx, strings.TrimSpace(code))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Group{}, ErrInvalidInvite
	}
	if err != nil {
		return core.Group{}, err
	}
	if err := s.storage.AddMember(ctx, g.ID, user.ID); err != nil {
		return core.Group{}, fmt.Errorf("join group: %w", err)
	}
	return g, nil
}

func (s *GroupService) Leave(ctx context.Context, user core.User) error {
	if user.GroupID == 0 {
		return ErrNotInGroup
	}
	if err := s.storage.RemoveMember(ctx, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotInGroup
		}
		return err
	}
	return nil
}

// Members returns the user's group and everyone in it.
func (s *GroupService) Members(ctx context.Context, user core.User) (core.Group, []core.User, error) {
	if user.GroupID == 0 {
		return core.Group{}, nil, ErrNotInGroup
	}
	g, err := s.storage.GetGroup(ctx, user.GroupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Group{}, nil, ErrNotInGroup
		}
		return core.Group{}, nil, err
	}
	members, err := s.storage.GroupMembers(ctx, g.ID)
	if err != nil {
		return core.Group{}, nil, err
	}
	return g, members, nil
}

func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
