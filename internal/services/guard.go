package services

import (
	"context"
	"fmt"

	"habboverify/internal/logger"
)

// Guard blocks privileged commands while the verify role is unset or gone from the guild.
type Guard struct {
	settings SettingsProvider
}

func NewGuard(settings SettingsProvider) *Guard {
	return &Guard{settings: settings}
}

// Check returns "" when the command may run, otherwise the reply for userID. With a nil roles
// lookup only the configuration is checked.
func (g *Guard) Check(ctx context.Context, userID string, roles RoleLookup) string {
	if !g.settings.VerifyRoleSet() {
		return greet(userID, msgNoRoleSet)
	}
	if roles == nil {
		return ""
	}

	ids, err := roles.GuildRoleIDs(ctx)
	if err != nil {
		logger.Log.WithField("user_id", userID).Errorf("[guard] guild roles fetch failed: %v", err)
		return greet(userID, msgSomethingWrong)
	}
	want := g.settings.VerifyRole()
	for _, id := range ids {
		if id == want {
			return ""
		}
	}
	return greet(userID, fmt.Sprintf(fmtRoleNotExisting, g.settings.VerifyRoleID()))
}
