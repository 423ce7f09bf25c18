package loyalty

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type Summary struct {
	UserID       string               `json:"userId"`
	Points       int                  `json:"points"`
	Tier         domain.Tier          `json:"tier"`
	Level        domain.LoyaltyLevel  `json:"level"`
	NextLevel    *domain.LoyaltyLevel `json:"nextLevel"`
	Progress     float64              `json:"progress"`
	PointsToNext int                  `json:"pointsToNext"`
}

type Service struct {
	users  interfaces.UserRepository
	logger logger.Logger
}

func NewService(users interfaces.UserRepository, logger logger.Logger) *Service {
	return &Service{users: users, logger: logger}
}

func (s *Service) TierOf(points int) domain.Tier {
	return domain.TierOf(points)
}

// AddPoints is a no-op without a user or with a non-positive delta.
func (s *Service) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	if userID == "" || delta <= 0 {
		return 0, nil
	}

	before, found, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load user: %w", err)
	}
	if !found {
		return 0, domain.ErrNotFound
	}

	points, err := s.users.AddPoints(ctx, userID, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}

	details := map[string]interface{}{
		"user_id": userID,
		"delta":   delta,
		"points":  points,
	}
	s.logger.Info("loyalty_points_added", fmt.Sprintf("Added %d points", delta), "", details)

	if oldTier, newTier := domain.TierOf(before.Points), domain.TierOf(points); oldTier != newTier {
		s.logger.Info("loyalty_tier_changed", fmt.Sprintf("User reached %s", newTier), "", map[string]interface{}{
			"user_id":  userID,
			"old_tier": oldTier,
			"new_tier": newTier,
		})
	}
	return points, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	user, found, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	return SummaryOf(user), nil
}

func SummaryOf(user *domain.User) *Summary {
	sum := &Summary{
		UserID:       user.ID,
		Points:       user.Points,
		Tier:         user.Tier(),
		Level:        domain.LevelOf(user.Points),
		Progress:     domain.Progress(user.Points),
		PointsToNext: domain.PointsToNext(user.Points),
	}
	if next, ok := domain.NextLevel(user.Points); ok {
		sum.NextLevel = &next
	}
	return sum
}

func (s *Service) Levels() []domain.LoyaltyLevel {
	return domain.LoyaltyLevels
}

func (s *Service) Rewards() []domain.Reward {
	return domain.Rewards
}

func (s *Service) SetBirthdayReminder(ctx context.Context, sess *session.Session, userID string, enabled bool) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	return sess.Do(ctx, func(st *session.State) error {
		if err := st.Put(ctx, session.BirthdayReminderKey(userID), enabled); err != nil {
			return err
		}
		s.logger.Debug("birthday_reminder_set", "Birthday reminder updated", sess.ID(), map[string]interface{}{
			"user_id": userID,
			"enabled": enabled,
		})
		return nil
	})
}

func (s *Service) BirthdayReminder(ctx context.Context, sess *session.Session, userID string) (bool, error) {
	var enabled bool
	err := sess.Do(ctx, func(st *session.State) error {
		_, err := st.Get(ctx, session.BirthdayReminderKey(userID), &enabled)
		return err
	})
	return enabled, err
}
