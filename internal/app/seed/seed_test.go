package seed

import (
	"context"
	"testing"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/memory"
	"github.com/YelzhanWeb/cafe/internal/adapter/password"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newSeeder() (*Seeder, *memory.Store) {
	store := memory.NewStore()
	return NewSeeder(store.Users(), store.GiftCards(), password.NewBcryptHasher(bcrypt.MinCost), logger.NewNop()), store
}

func TestMockUsersAreIdempotent(t *testing.T) {
	ctx := context.Background()
	s, store := newSeeder()

	n, err := s.MockUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = s.MockUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	bob, found, err := store.Users().FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.TierGold, bob.Tier())

	admin, found, err := store.Users().FindByEmail(ctx, "admin@cafe.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, admin.IsOwner())
}

func TestGiftCards(t *testing.T) {
	ctx := context.Background()
	s, store := newSeeder()

	n, err := s.GiftCards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.GiftCards(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	card, found, err := store.GiftCards().FindByCode(ctx, "gift456")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "35.75", card.Balance.StringFixed(2))
	assert.True(t, card.IsRedeemed)
}

func TestDemoUsers(t *testing.T) {
	ctx := context.Background()
	s, store := newSeeder()

	ticks := 0
	n, err := s.DemoUsers(ctx, 5, func() { ticks++ })
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, ticks)

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)
	for _, u := range users {
		assert.Equal(t, domain.RoleClient, u.Role)
		assert.NoError(t, domain.ValidateEmail(u.Email))
	}
}
