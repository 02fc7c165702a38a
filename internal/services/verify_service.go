package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"habboverify/internal/habbo"
	"habboverify/internal/logger"
	"habboverify/internal/models"
	"habboverify/internal/repositories"
	"habboverify/internal/utils"
)

const (
	defaultWait       = 45 * time.Second
	defaultCodeLength = 5
)

type VerifyOptions struct {
	Wait       time.Duration
	CodeLength int
}

// VerifyService runs /verify, /check and /reset.
type VerifyService struct {
	repo     repositories.VerificationRepository
	profiles ProfileFetcher
	roles    *RoleSync
	guard    *Guard
	attempts *AttemptRegistry
	notifier Notifier

	wait       time.Duration
	codeLength int
	newCode    func(n int) (string, error)
}

func NewVerifyService(
	repo repositories.VerificationRepository,
	profiles ProfileFetcher,
	roles *RoleSync,
	guard *Guard,
	attempts *AttemptRegistry,
	notifier Notifier,
	opts VerifyOptions,
) *VerifyService {
	if opts.Wait <= 0 {
		opts.Wait = defaultWait
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = defaultCodeLength
	}
	return &VerifyService{
		repo:       repo,
		profiles:   profiles,
		roles:      roles,
		guard:      guard,
		attempts:   attempts,
		notifier:   notifier,
		wait:       opts.Wait,
		codeLength: opts.CodeLength,
		newCode:    utils.NewChallengeCode,
	}
}

// Verify runs one verification attempt of userID for the Habbo name. progress receives the challenge
// before the wait starts; the returned string is the final reply.
func (s *VerifyService) Verify(ctx context.Context, userID, name string, progress func(string)) string {
	if msg := s.guard.Check(ctx, userID, s.roles.Lookup()); msg != "" {
		return msg
	}
	if strings.TrimSpace(name) == "" {
		return greet(userID, msgUsernameMissing)
	}

	log := logger.Log.WithFields(logrus.Fields{"user_id": userID, "habbo": name})

	attempt, ok := s.attempts.Begin(userID, name, s.wait)
	if !ok {
		log.Info("[verify][busy] attempt already running")
		return greet(userID, msgInProgress)
	}
	defer s.attempts.End(attempt)
	log = log.WithField("attempt", attempt.ID.String())

	existing, err := s.repo.FindVerifiedByUser(ctx, userID)
	if err != nil {
		log.Errorf("[verify][check][err] %v", err)
		return greet(userID, msgSomethingWrong)
	}
	if existing != nil {
		return greet(userID, msgAlreadyVerified)
	}

	code, err := s.newCode(s.codeLength)
	if err != nil {
		log.Errorf("[verify][code][err] %v", err)
		return greet(userID, msgSomethingWrong)
	}

	if err := s.repo.Create(ctx, &models.VerifiedUser{UserID: userID, Habbo: name}); err != nil {
		log.Errorf("[verify][add][err] %v", err)
		return greet(userID, msgAddFailed)
	}

	seconds := int(s.wait / time.Second)
	log.Infof("[verify][challenge] issued, waiting %s", s.wait)
	if progress != nil {
		progress(greet(userID, fmt.Sprintf(fmtChallenge, code, seconds)))
	}

	if !s.awaitDeadline(ctx, attempt) {
		log.Info("[verify][cancelled]")
		return greet(userID, msgCancelled)
	}

	profile, err := s.profiles.Fetch(ctx, name)
	if attempt.isCancelled() || ctx.Err() != nil {
		log.Info("[verify][cancelled] during profile lookup")
		return greet(userID, msgCancelled)
	}
	if err != nil {
		if upstream, notFound := habbo.IsNotFound(err); notFound {
			log.Infof("[verify][profile] unavailable: %s", upstream)
			return greet(userID, fmt.Sprintf(fmtProfileMissing, name, upstream))
		}
		log.Warnf("[verify][profile][err] %v", err)
		return greet(userID, msgRequestFailed)
	}

	if profile.Motto != code {
		log.Info("[verify][mismatch]")
		return greet(userID, fmt.Sprintf(fmtMottoMismatch, name, code, seconds))
	}

	evicted := s.resolveConflicts(ctx, userID, name)

	if err := s.repo.MarkVerified(ctx, userID, name); err != nil {
		log.Errorf("[verify][update][err] %v", err)
		return greet(userID, msgUpdateFailed)
	}

	s.roles.Grant(ctx, userID)
	log.Infof("[verify][ok] evicted=%d", len(evicted))
	notify(ctx, s.notifier, Event{Kind: EventVerified, UserID: userID, Habbo: name, Evicted: evicted})

	return greet(userID, msgVerified)
}

// awaitDeadline sleeps for the whole wait. It returns false when the attempt was cancelled or the
// context ended first.
func (s *VerifyService) awaitDeadline(ctx context.Context, attempt *Attempt) bool {
	timer := time.NewTimer(s.wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-attempt.Cancelled():
		return false
	case <-ctx.Done():
		return false
	}
}

// resolveConflicts deletes every other claim on name and revokes the role from evicted users left
// without a verified claim. Errors are logged; the attempt goes on.
func (s *VerifyService) resolveConflicts(ctx context.Context, userID, name string) []string {
	log := logger.Log.WithFields(logrus.Fields{"user_id": userID, "habbo": name})

	others, err := s.repo.FindClaimsByOthers(ctx, name, userID)
	if err != nil {
		log.Errorf("[verify][conflicts][scan][err] %v", err)
	}
	if _, err := s.repo.DeleteClaimsByOthers(ctx, name, userID); err != nil {
		log.Errorf("[verify][conflicts][delete][err] %v", err)
		return nil
	}

	seen := make(map[string]struct{}, len(others))
	var evicted []string
	for _, o := range others {
		if _, dup := seen[o.UserID]; dup {
			continue
		}
		seen[o.UserID] = struct{}{}
		evicted = append(evicted, o.UserID)

		still, err := s.repo.FindVerifiedByUser(ctx, o.UserID)
		if err != nil {
			log.Errorf("[verify][conflicts][lookup][err] evicted=%s: %v", o.UserID, err)
		}
		if still != nil {
			continue
		}
		s.roles.Revoke(ctx, o.UserID)
	}
	return evicted
}

// Check reports the verified Habbo of targetID.
func (s *VerifyService) Check(ctx context.Context, requesterID, targetID string) string {
	if strings.TrimSpace(targetID) == "" {
		return greet(requesterID, msgUserMissing)
	}
	if !isSnowflake(targetID) {
		return greet(requesterID, msgInvalidUser)
	}

	rec, err := s.repo.FindVerifiedByUser(ctx, targetID)
	if err != nil {
		logger.Log.WithField("user_id", targetID).Errorf("[check][err] %v", err)
		return greet(requesterID, msgSomethingWrong)
	}
	if rec == nil {
		return greet(requesterID, fmt.Sprintf(fmtCheckNotVerified, targetID))
	}
	return greet(requesterID, fmt.Sprintf(fmtCheckVerified, rec.UserID, rec.Habbo))
}

// Reset cancels a running attempt, deletes every claim of userID and revokes the role. The reply
// does not depend on the outcome of the store or role calls.
func (s *VerifyService) Reset(ctx context.Context, userID string) string {
	if msg := s.guard.Check(ctx, userID, nil); msg != "" {
		return msg
	}
	log := logger.Log.WithField("user_id", userID)

	if s.attempts.Cancel(userID) {
		log.Info("[reset] cancelled running attempt")
	}
	n, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		log.Errorf("[reset][delete][err] %v", err)
	}
	s.roles.Revoke(ctx, userID)
	log.Infof("[reset] deleted=%d", n)
	notify(ctx, s.notifier, Event{Kind: EventReset, UserID: userID})

	return greet(userID, msgResetDone)
}

func isSnowflake(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
