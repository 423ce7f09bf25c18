package giftcard

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/shopspring/decimal"
)

type SendGiftCardCommand struct {
	Amount    decimal.Decimal
	Sender    domain.Party
	Recipient domain.Party
	Message   string
}

type Service struct {
	repo    interfaces.GiftCardRepository
	logger  logger.Logger
	taxRate decimal.Decimal
	now     func() time.Time
}

func NewService(repo interfaces.GiftCardRepository, logger logger.Logger, taxRate decimal.Decimal) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		taxRate: taxRate,
		now:     time.Now,
	}
}

// Lookup is case-insensitive. A missing card is found=false, not an error.
func (s *Service) Lookup(ctx context.Context, code string) (*domain.GiftCard, bool, error) {
	code = domain.CanonicalGiftCardCode(code)
	if code == "" {
		return nil, false, nil
	}
	card, found, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up gift card: %w", err)
	}
	return card, found, nil
}

// Balance backs the check-balance page.
func (s *Service) Balance(ctx context.Context, code string) (*domain.GiftCard, error) {
	card, found, err := s.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	return card, nil
}

func (s *Service) Send(ctx context.Context, cmd SendGiftCardCommand) (*domain.GiftCard, error) {
	card, err := domain.NewGiftCard(cmd.Amount, cmd.Sender, cmd.Recipient, cmd.Message, s.now())
	if err != nil {
		s.logger.Debug("gift_card_rejected", err.Error(), "", nil)
		return nil, err
	}

	if err := s.repo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to store gift card: %w", err)
	}

	s.logger.Info("gift_card_sent", fmt.Sprintf("Gift card %s issued", card.Code), "", map[string]interface{}{
		"code":      card.Code,
		"amount":    card.Amount.StringFixed(2),
		"recipient": card.Recipient.Email,
	})
	return card, nil
}

// Apply provisionally applies a card to the session's current total before
// discount. Nothing is debited until checkout commits.
func (s *Service) Apply(ctx context.Context, sess *session.Session, code string) (*domain.GiftCardApplication, bool, error) {
	card, found, err := s.Lookup(ctx, code)
	if err != nil || !found {
		return nil, found, err
	}

	var app domain.GiftCardApplication
	err = sess.Do(ctx, func(st *session.State) error {
		cart := st.Cart()
		totals := domain.ComputeTotals(cart.Subtotal(), s.taxRate, decimal.Zero)
		app, err = card.Apply(totals.TotalBeforeGiftCard, s.now())
		if err != nil {
			return err
		}
		st.SetGiftCard(&app)
		return nil
	})
	if err != nil {
		return nil, true, err
	}

	s.logger.Info("gift_card_applied", fmt.Sprintf("Gift card %s applied", app.Code), sess.ID(), map[string]interface{}{
		"amount":    app.Amount.StringFixed(2),
		"remaining": app.Remaining.StringFixed(2),
	})
	return &app, true, nil
}

func (s *Service) Remove(ctx context.Context, sess *session.Session) error {
	return sess.Do(ctx, func(st *session.State) error {
		if st.GiftCard() != nil {
			st.SetGiftCard(nil)
			s.logger.Debug("gift_card_removed", "Gift card application removed", sess.ID(), nil)
		}
		return nil
	})
}

func (s *Service) Applied(ctx context.Context, sess *session.Session) (*domain.GiftCardApplication, error) {
	var app *domain.GiftCardApplication
	err := sess.Do(ctx, func(st *session.State) error {
		app = st.GiftCard()
		return nil
	})
	return app, err
}
