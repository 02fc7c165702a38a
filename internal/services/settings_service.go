package services

import (
	"errors"
	"fmt"
	"strconv"

	"habboverify/internal/config"
	"habboverify/internal/logger"
)

// SettingsService runs /init.
type SettingsService struct {
	settings SettingsProvider
}

func NewSettingsService(settings SettingsProvider) *SettingsService {
	return &SettingsService{settings: settings}
}

// Init binds the verify role. Only administrators may run it, and only once.
func (s *SettingsService) Init(requesterID string, isAdmin bool, roleID string) string {
	if roleID == "" {
		return greet(requesterID, msgRoleMissing)
	}
	if !isAdmin {
		return greet(requesterID, msgNotAdmin)
	}
	if s.settings.VerifyRoleSet() {
		return greet(requesterID, msgAlreadyInit)
	}

	id, err := strconv.ParseUint(roleID, 10, 64)
	if err != nil {
		return greet(requesterID, msgInvalidRole)
	}

	if err := s.settings.InitVerifyRole(id); err != nil {
		switch {
		case errors.Is(err, config.ErrAlreadyInitialized):
			return greet(requesterID, msgAlreadyInit)
		case errors.Is(err, config.ErrInvalidRole):
			return greet(requesterID, msgInvalidRole)
		default:
			logger.Log.WithField("role_id", roleID).Errorf("[init][save][err] %v", err)
			return greet(requesterID, msgSomethingWrong)
		}
	}
	logger.Log.WithField("user_id", requesterID).Infof("[init] verify role set to %d", id)
	return greet(requesterID, fmt.Sprintf(fmtRoleSelected, id))
}
