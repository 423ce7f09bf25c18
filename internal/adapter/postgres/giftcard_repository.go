package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type giftCardRepository struct {
	db DB
}

func NewGiftCardRepository(db DB) interfaces.GiftCardRepository {
	return &giftCardRepository{db: db}
}

func (r *giftCardRepository) Create(ctx context.Context, card *domain.GiftCard) error {
	query := `
		INSERT INTO gift_cards (id, code, amount, balance, sender_name, sender_email,
		                        recipient_name, recipient_email, message, created_at, expires_at, is_redeemed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		card.ID, domain.CanonicalGiftCardCode(card.Code), card.Amount, card.Balance,
		card.Sender.Name, card.Sender.Email, card.Recipient.Name, card.Recipient.Email,
		card.Message, card.CreatedAt, card.ExpiresAt, card.IsRedeemed,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("gift card %s already exists", card.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create gift card: %w", err)
	}
	return nil
}

func (r *giftCardRepository) FindByCode(ctx context.Context, code string) (*domain.GiftCard, bool, error) {
	query := `
		SELECT id, code, amount, balance, sender_name, sender_email, recipient_name, recipient_email,
		       message, created_at, expires_at, is_redeemed
		FROM gift_cards
		WHERE code = $1
	`
	var c domain.GiftCard
	err := r.db.QueryRow(ctx, query, domain.CanonicalGiftCardCode(code)).Scan(
		&c.ID, &c.Code, &c.Amount, &c.Balance, &c.Sender.Name, &c.Sender.Email,
		&c.Recipient.Name, &c.Recipient.Email, &c.Message, &c.CreatedAt, &c.ExpiresAt, &c.IsRedeemed,
	)
	if isNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find gift card: %w", err)
	}
	return &c, true, nil
}
