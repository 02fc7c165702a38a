package services

import (
	"context"
	"fmt"
	"strings"

	"habboverify/internal/habbo"
	"habboverify/internal/logger"
	"habboverify/internal/models"
)

type InfoService struct {
	profiles ProfileFetcher
}

func NewInfoService(profiles ProfileFetcher) *InfoService {
	return &InfoService{profiles: profiles}
}

// Info fetches the profile for the /info card. The profile is nil whenever the reply is an error.
func (s *InfoService) Info(ctx context.Context, requesterID, name string) (string, *models.Profile) {
	if strings.TrimSpace(name) == "" {
		return greet(requesterID, msgUsernameMissing), nil
	}

	profile, err := s.profiles.Fetch(ctx, name)
	if err != nil {
		if upstream, notFound := habbo.IsNotFound(err); notFound {
			return greet(requesterID, fmt.Sprintf(fmtProfileMissing, name, upstream)), nil
		}
		logger.Log.WithField("habbo", name).Warnf("[info][err] %v", err)
		return greet(requesterID, msgRequestFailed), nil
	}
	return greet(requesterID, fmt.Sprintf(fmtInfoSent, name)), profile
}
