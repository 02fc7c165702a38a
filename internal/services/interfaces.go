package services

import (
	"context"

	"habboverify/internal/models"
)

type ProfileFetcher interface {
	Fetch(ctx context.Context, name string) (*models.Profile, error)
}

// RoleAPI is the guild-scoped role surface of the messaging platform.
type RoleAPI interface {
	GuildRoleIDs(ctx context.Context) ([]string, error)
	AddMemberRole(ctx context.Context, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, userID, roleID string) error
	MembersWithRole(ctx context.Context, roleID string) ([]string, error)
}

// RoleLookup is what the guard needs to confirm the role still exists.
type RoleLookup interface {
	GuildRoleIDs(ctx context.Context) ([]string, error)
}

type SettingsProvider interface {
	GuildID() string
	VerifyRoleID() uint64
	VerifyRole() string
	VerifyRoleSet() bool
	InitVerifyRole(roleID uint64) error
}
