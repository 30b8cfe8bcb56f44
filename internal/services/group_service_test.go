package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGroupService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, 1)
	member := env.user(t, 2)

	if _, err := env.groups.Create(ctx, owner, "  "); err == nil {
		t.Error("Create(blank name) should fail")
	}
	if _, err := env.groups.Create(ctx, owner, strings.Repeat("я", 65)); err == nil {
		t.Error("Create(long name) should fail")
	}

	g, err := env.groups.Create(ctx, owner, "семья")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(g.InviteCode) != 10 || g.OwnerID != owner.ID {
		t.Errorf("Create() = %+v", g)
	}
	owner = env.reload(t, owner)
	if owner.GroupID != g.ID {
		t.Fatalf("owner group = %d, want %d", owner.GroupID, g.ID)
	}
	if _, err := env.groups.Create(ctx, owner, "ещё"); !errors.Is(err, ErrAlreadyInGroup) {
		t.Errorf("Create() while in group error = %v", err)
	}

	if _, err := env.groups.Join(ctx, member, "nope"); !errors.Is(err, ErrInvalidInvite) {
		t.Errorf("Join(bad code) error = %v", err)
	}
	if _, err := env.groups.Join(ctx, member, " "+g.InviteCode+" "); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	member = env.reload(t, member)

	got, members, err := env.groups.Members(ctx, member)
	if err != nil || got.ID != g.ID || len(members) != 2 {
		t.Fatalf("Members() = %+v, %d members, %v", got, len(members), err)
	}

	if err := env.groups.Leave(ctx, member); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	member = env.reload(t, member)
	if err := env.groups.Leave(ctx, member); !errors.Is(err, ErrNotInGroup) {
		t.Errorf("second Leave() error = %v", err)
	}
	if _, _, err := env.groups.Members(ctx, member); !errors.Is(err, ErrNotInGroup) {
		t.Errorf("Members() outside group error = %v", err)
	}

	if err := env.groups.Leave(ctx, owner); err != nil {
		t.Fatalf("owner Leave() error = %v", err)
	}
	if _, err := env.groups.Join(ctx, member, g.InviteCode); !errors.Is(err, ErrInvalidInvite) {
		t.Errorf("empty group should be gone, Join() error = %v", err)
	}
}

func TestNewInviteCode(t *testing.T) {
	a, b := newInviteCode(), newInviteCode()
	if len(a) != 10 || a == b {
		t.Fatalf("newInviteCode() = %q, %q", a, b)
	}
	if strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("invite code %q is not hex", a)
	}
}
