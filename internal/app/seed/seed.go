package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/shopspring/decimal"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type mockUser struct {
	name   string
	email  string
	role   domain.Role
	points int
}

var mockUsers = []mockUser{
	{name: "John Doe", email: "john@example.com", role: domain.RoleClient, points: 120},
	{name: "Jane Smith", email: "jane@example.com", role: domain.RoleClient, points: 450},
	{name: "Bob Johnson", email: "bob@example.com", role: domain.RoleClient, points: 950},
	{name: "Admin User", email: "admin@cafe.com", role: domain.RoleOwner, points: 0},
}

type mockGiftCard struct {
	code      string
	amount    string
	balance   string
	sender    domain.Party
	recipient domain.Party
	message   string
	age       time.Duration
}

var mockGiftCards = []mockGiftCard{
	{
		code: "GIFT123", amount: "25", balance: "25",
		sender:    domain.Party{Name: "John Doe", Email: "john@example.com"},
		recipient: domain.Party{Name: "Jane Smith", Email: "jane@example.com"},
		message:   "Happy Birthday!",
		age:       2 * 24 * time.Hour,
	},
	{
		code: "GIFT456", amount: "50", balance: "35.75",
		sender:    domain.Party{Name: "Bob Johnson", Email: "bob@example.com"},
		recipient: domain.Party{Name: "Alice Williams", Email: "alice@example.com"},
		message:   "Enjoy your coffee!",
		age:       5 * 24 * time.Hour,
	},
}

// Seeder fills an empty store with the demo accounts and gift cards. Every
// step skips records that already exist, so it can be rerun.
type Seeder struct {
	users     interfaces.UserRepository
	giftCards interfaces.GiftCardRepository
	hasher    interfaces.PasswordHasher
	logger    logger.Logger
	fake      faker.Faker
	now       func() time.Time
}

func NewSeeder(users interfaces.UserRepository, giftCards interfaces.GiftCardRepository, hasher interfaces.PasswordHasher, logger logger.Logger) *Seeder {
	return &Seeder{
		users:     users,
		giftCards: giftCards,
		hasher:    hasher,
		logger:    logger,
		fake:      faker.New(),
		now:       time.Now,
	}
}

func (s *Seeder) MockUsers(ctx context.Context) (int, error) {
	hash, err := s.hasher.Hash(DemoPassword)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, m := range mockUsers {
		ok, err := s.createUser(ctx, m.name, m.email, m.role, m.points, hash)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	s.logger.Info("seed_users", fmt.Sprintf("Seeded %d mock users", created), "", nil)
	return created, nil
}

// DemoUsers adds n random customers with random point balances.
func (s *Seeder) DemoUsers(ctx context.Context, n int, progress func()) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	hash, err := s.hasher.Hash(DemoPassword)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := 0; i < n; i++ {
		person := s.fake.Person()
		name := person.Name()
		email := strings.ToLower(fmt.Sprintf("%s.%d@%s", person.FirstName(), i, s.fake.Internet().FreeEmailDomain()))
		points := s.fake.IntBetween(0, 1200)

		ok, err := s.createUser(ctx, name, email, domain.RoleClient, points, hash)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
		if progress != nil {
			progress()
		}
	}
	s.logger.Info("seed_demo_users", fmt.Sprintf("Seeded %d demo users", created), "", nil)
	return created, nil
}

func (s *Seeder) createUser(ctx context.Context, name, email string, role domain.Role, points int, hash string) (bool, error) {
	now := s.now()
	err := s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		Points:       points,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to seed user %s: %w", email, err)
	}
	return true, nil
}

func (s *Seeder) GiftCards(ctx context.Context) (int, error) {
	created := 0
	for _, m := range mockGiftCards {
		_, found, err := s.giftCards.FindByCode(ctx, m.code)
		if err != nil {
			return created, err
		}
		if found {
			continue
		}

		issued := s.now().Add(-m.age)
		message := m.message
		balance := decimal.RequireFromString(m.balance)
		card := &domain.GiftCard{
			ID:         uuid.NewString(),
			Code:       m.code,
			Amount:     decimal.RequireFromString(m.amount),
			Balance:    balance,
			Sender:     m.sender,
			Recipient:  m.recipient,
			Message:    &message,
			CreatedAt:  issued,
			ExpiresAt:  issued.Add(domain.GiftCardValidity),
			IsRedeemed: !balance.Equal(decimal.RequireFromString(m.amount)),
		}
		if err := s.giftCards.Create(ctx, card); err != nil {
			return created, fmt.Errorf("failed to seed gift card %s: %w", m.code, err)
		}
		created++
	}
	s.logger.Info("seed_gift_cards", fmt.Sprintf("Seeded %d gift cards", created), "", nil)
	return created, nil
}
