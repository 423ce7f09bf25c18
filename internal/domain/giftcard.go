package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const GiftCardValidity = 365 * 24 * time.Hour

// AllowedGiftCardAmounts are the face values offered on the send page.
var AllowedGiftCardAmounts = []int64{25, 50, 75, 100}

type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GiftCard struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	Sender     Party           `json:"sender"`
	Recipient  Party           `json:"recipient"`
	Message    *string         `json:"message,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
	IsRedeemed bool            `json:"isRedeemed"`
}

// GiftCardApplication is the provisional use of a card against one checkout.
// It is never persisted as a debit until the order commits.
type GiftCardApplication struct {
	Code      string          `json:"code"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`
}

// CanonicalGiftCardCode makes codes case-insensitive.
func CanonicalGiftCardCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewGiftCard issues a card whose balance equals its face amount.
func NewGiftCard(amount decimal.Decimal, sender, recipient Party, message string, now time.Time) (*GiftCard, error) {
	if !isAllowedAmount(amount) {
		return nil, ErrInvalidGiftCardAmount
	}
	if err := validateParty("sender", sender); err != nil {
		return nil, err
	}
	if err := validateParty("recipient", recipient); err != nil {
		return nil, err
	}

	card := &GiftCard{
		ID:        uuid.NewString(),
		Code:      NewGiftCardCode(),
		Amount:    amount,
		Balance:   amount,
		Sender:    sender,
		Recipient: recipient,
		CreatedAt: now,
		ExpiresAt: now.Add(GiftCardValidity),
	}
	if m := strings.TrimSpace(message); m != "" {
		card.Message = &m
	}
	return card, nil
}

// NewGiftCardCode returns a code of the form GIFT-XXXXXXXX.
func NewGiftCardCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "GIFT-" + strings.ToUpper(raw[:8])
}

func (g *GiftCard) IsExpired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && now.After(g.ExpiresAt)
}

// Apply computes how much of the card covers total. It does not change the
// card, so applying twice gives the same result.
func (g *GiftCard) Apply(total decimal.Decimal, now time.Time) (GiftCardApplication, error) {
	if g.IsExpired(now) {
		return GiftCardApplication{}, ErrGiftCardExpired
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	amount := decimal.Min(g.Balance, total)
	return GiftCardApplication{
		Code:      g.Code,
		Amount:    amount,
		Remaining: g.Balance.Sub(amount),
	}, nil
}

// Rebase re-caps an earlier application against a new total, using the
// balance seen when the card was applied.
func (a GiftCardApplication) Rebase(total decimal.Decimal) GiftCardApplication {
	balance := a.Amount.Add(a.Remaining)
	if total.IsNegative() {
		total = decimal.Zero
	}
	amount := decimal.Min(balance, total)
	return GiftCardApplication{Code: a.Code, Amount: amount, Remaining: balance.Sub(amount)}
}

// Debit lowers the balance. The card is marked redeemed once it is empty.
func (g *GiftCard) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.GreaterThan(g.Balance) {
		return ErrGiftCardBalanceChanged
	}
	g.Balance = g.Balance.Sub(amount)
	if g.Balance.IsZero() {
		g.IsRedeemed = true
	}
	return nil
}

func isAllowedAmount(amount decimal.Decimal) bool {
	for _, a := range AllowedGiftCardAmounts {
		if amount.Equal(decimal.NewFromInt(a)) {
			return true
		}
	}
	return false
}

func validateParty(field string, p Party) error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError(field+".name", "is required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return NewValidationError(field+".email", "must be a valid email address")
	}
	return nil
}
