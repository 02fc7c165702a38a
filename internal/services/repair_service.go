package services

import (
	"context"
	"errors"
	"fmt"

	"habboverify/internal/logger"
	"habboverify/internal/models"
	"habboverify/internal/repositories"
)

var ErrRoleNotConfigured = errors.New("verify role not configured")

type RepairReport struct {
	Verified        int `json:"verified"`
	DuplicateClaims int `json:"duplicate_claims"`
	Granted         int `json:"granted"`
	Revoked         int `json:"revoked"`
}

// RepairService brings role membership back in line with the verified records. Running it twice in
// a row changes nothing the second time.
type RepairService struct {
	repo     repositories.VerificationRepository
	roles    *RoleSync
	settings SettingsProvider
	notifier Notifier
}

func NewRepairService(repo repositories.VerificationRepository, roles *RoleSync, settings SettingsProvider, notifier Notifier) *RepairService {
	return &RepairService{repo: repo, roles: roles, settings: settings, notifier: notifier}
}

func (s *RepairService) Run(ctx context.Context) (RepairReport, error) {
	var report RepairReport
	if !s.settings.VerifyRoleSet() {
		return report, ErrRoleNotConfigured
	}

	records, err := s.repo.List(ctx, true)
	if err != nil {
		return report, fmt.Errorf("repair list: %w", err)
	}

	// newest first, so the first claim seen for a name wins
	winners := make(map[string]models.VerifiedUser)
	verifiedUsers := make(map[string]struct{})
	for _, rec := range records {
		if _, taken := winners[rec.Habbo]; taken {
			continue
		}
		winners[rec.Habbo] = rec
	}
	for _, rec := range records {
		w := winners[rec.Habbo]
		if w.UserID != rec.UserID {
			report.DuplicateClaims++
			continue
		}
		verifiedUsers[rec.UserID] = struct{}{}
	}
	if report.DuplicateClaims > 0 {
		for name, w := range winners {
			if _, err := s.repo.DeleteClaimsByOthers(ctx, name, w.UserID); err != nil {
				return report, fmt.Errorf("repair evict %q: %w", name, err)
			}
		}
	}
	report.Verified = len(verifiedUsers)

	holders, err := s.roles.Holders(ctx)
	if err != nil {
		return report, fmt.Errorf("repair role holders: %w", err)
	}
	holding := make(map[string]struct{}, len(holders))
	for _, h := range holders {
		holding[h] = struct{}{}
	}

	for uid := range verifiedUsers {
		if _, ok := holding[uid]; !ok {
			s.roles.Grant(ctx, uid)
			report.Granted++
		}
	}
	for uid := range holding {
		if _, ok := verifiedUsers[uid]; !ok {
			s.roles.Revoke(ctx, uid)
			report.Revoked++
		}
	}

	logger.Log.Infof("[repair] verified=%d duplicates=%d granted=%d revoked=%d",
		report.Verified, report.DuplicateClaims, report.Granted, report.Revoked)
	if report.DuplicateClaims+report.Granted+report.Revoked > 0 {
		notify(ctx, s.notifier, Event{
			Kind:   EventRepair,
			Detail: fmt.Sprintf("duplicates=%d granted=%d revoked=%d", report.DuplicateClaims, report.Granted, report.Revoked),
		})
	}
	return report, nil
}
