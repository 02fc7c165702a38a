package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"habboverify/internal/logger"
)

// RoleSync grants and revokes the verify role. Failures are logged and swallowed.
type RoleSync struct {
	api      RoleAPI
	settings SettingsProvider
}

func NewRoleSync(api RoleAPI, settings SettingsProvider) *RoleSync {
	return &RoleSync{api: api, settings: settings}
}

func (s *RoleSync) Grant(ctx context.Context, userID string) {
	role := s.settings.VerifyRole()
	if err := s.api.AddMemberRole(ctx, userID, role); err != nil {
		logger.Log.WithFields(logrus.Fields{"user_id": userID, "role_id": role}).
			Errorf("[roles][grant][err] %v", err)
		return
	}
	logger.Log.WithField("user_id", userID).Infof("[roles][grant] ok role_id=%s", role)
}

func (s *RoleSync) Revoke(ctx context.Context, userID string) {
	role := s.settings.VerifyRole()
	if err := s.api.RemoveMemberRole(ctx, userID, role); err != nil {
		logger.Log.WithFields(logrus.Fields{"user_id": userID, "role_id": role}).
			Errorf("[roles][revoke][err] %v", err)
		return
	}
	logger.Log.WithField("user_id", userID).Infof("[roles][revoke] ok role_id=%s", role)
}

// Lookup exposes the role roster for the guard.
func (s *RoleSync) Lookup() RoleLookup { return s.api }

// Holders lists the members currently holding the verify role.
func (s *RoleSync) Holders(ctx context.Context) ([]string, error) {
	return s.api.MembersWithRole(ctx, s.settings.VerifyRole())
}
