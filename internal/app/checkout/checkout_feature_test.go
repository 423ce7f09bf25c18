package checkout

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/memory"
	"github.com/YelzhanWeb/cafe/internal/app/cart"
	"github.com/YelzhanWeb/cafe/internal/app/catalog"
	"github.com/YelzhanWeb/cafe/internal/app/giftcard"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/app/table"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type checkoutTestContext struct {
	store     *memory.Store
	catalog   *catalog.Service
	ledger    *cart.Ledger
	tables    *table.Service
	giftCards *giftcard.Service
	checkout  *Service
	sess      *session.Session

	order *domain.Order
	err   error
}

func (c *checkoutTestContext) reset() error {
	lgr := logger.NewNop()
	c.store = memory.NewStore()
	c.catalog = catalog.NewService(c.store.Products(), lgr, time.Minute)
	c.ledger = cart.NewLedger(lgr, true)
	c.tables = table.NewService(lgr)
	c.giftCards = giftcard.NewService(c.store.GiftCards(), lgr, domain.DefaultTaxRate)
	c.checkout = NewService(c.store.Orders(), c.store.GiftCards(), nil, lgr, domain.DefaultTaxRate)
	c.order = nil
	c.err = nil

	sess, err := session.NewManager(memory.NewStateStore(), lgr).Open(context.Background(), uuid.NewString())
	c.sess = sess
	return err
}

func (c *checkoutTestContext) theMenuIsLoaded() error {
	products, err := catalog.LoadFile("../../../menu.yaml")
	if err != nil {
		return err
	}
	return c.catalog.Import(context.Background(), products, nil)
}

func (c *checkoutTestContext) theGiftCardHasABalanceOf(code, balance string) error {
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return err
	}
	now := time.Now()
	return c.store.GiftCards().Create(context.Background(), &domain.GiftCard{
		ID: uuid.NewString(), Code: code, Amount: amount, Balance: amount,
		CreatedAt: now, ExpiresAt: now.Add(domain.GiftCardValidity),
	})
}

func (c *checkoutTestContext) aCustomerWithPoints(email string, points int) error {
	return c.store.Users().Create(context.Background(), &domain.User{
		ID: email, Name: email, Email: email, Role: domain.RoleClient, Points: points, CreatedAt: time.Now(),
	})
}

func (c *checkoutTestContext) iScanned(code string) error {
	_, err := c.tables.BindFromScan(context.Background(), c.sess, code)
	return err
}

func parseSelection(raw string) map[string]string {
	sel := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		name, choice, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok {
			sel[name] = choice
		}
	}
	return sel
}

func (c *checkoutTestContext) add(quantity int, name, selection string) error {
	ctx := context.Background()
	hits, err := c.catalog.Search(ctx, name, "")
	if err != nil {
		return err
	}
	for i := range hits {
		if hits[i].Name == name {
			_, err = c.ledger.AddItem(ctx, c.sess, &hits[i], quantity, parseSelection(selection))
			return err
		}
	}
	return fmt.Errorf("product %q not on the menu", name)
}

func (c *checkoutTestContext) iAdd(quantity int, name, selection string) error {
	return c.add(quantity, name, selection)
}

func (c *checkoutTestContext) iTryToAdd(quantity int, name, selection string) error {
	c.err = c.add(quantity, name, selection)
	return nil
}

func (c *checkoutTestContext) theCartHasLineWithUnitPrice(lines int, price string) error {
	items, err := c.ledger.Items(context.Background(), c.sess)
	if err != nil {
		return err
	}
	if len(items) != lines {
		return fmt.Errorf("expected %d lines, got %d", lines, len(items))
	}
	if got := items[0].Price.StringFixed(2); got != price {
		return fmt.Errorf("expected unit price %s, got %s", price, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartHasLineWithQuantity(lines, quantity int) error {
	items, err := c.ledger.Items(context.Background(), c.sess)
	if err != nil {
		return err
	}
	if len(items) != lines {
		return fmt.Errorf("expected %d lines, got %d", lines, len(items))
	}
	if items[0].Quantity != quantity {
		return fmt.Errorf("expected quantity %d, got %d", quantity, items[0].Quantity)
	}
	return nil
}

func (c *checkoutTestContext) quoteField(pick func(*Quote) decimal.Decimal, want string) error {
	q, err := c.checkout.Quote(context.Background(), c.sess)
	if err != nil {
		return err
	}
	if got := pick(q).StringFixed(2); got != want {
		return fmt.Errorf("expected %s, got %s", want, got)
	}
	return nil
}

func (c *checkoutTestContext) theSubtotalIs(want string) error {
	return c.quoteField(func(q *Quote) decimal.Decimal { return q.Totals.Subtotal }, want)
}

func (c *checkoutTestContext) theTotalIs(want string) error {
	return c.quoteField(func(q *Quote) decimal.Decimal { return q.Totals.Total }, want)
}

func (c *checkoutTestContext) isAppliedFromTheGiftCard(want string) error {
	return c.quoteField(func(q *Quote) decimal.Decimal { return q.Totals.GiftCardApplied }, want)
}

func (c *checkoutTestContext) iApplyTheGiftCard(code string) error {
	_, found, err := c.giftCards.Apply(context.Background(), c.sess, code)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("gift card %s not found", code)
	}
	return nil
}

func (c *checkoutTestContext) iCheckOutAsAGuest() error {
	order, err := c.checkout.Checkout(context.Background(), c.sess, nil)
	c.order = order
	return err
}

func (c *checkoutTestContext) iTryToCheckOutAsAGuest() error {
	c.order, c.err = c.checkout.Checkout(context.Background(), c.sess, nil)
	return nil
}

func (c *checkoutTestContext) iCheckOutAs(email string) error {
	user, found, err := c.store.Users().FindByEmail(context.Background(), email)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no customer %s", email)
	}
	c.order, err = c.checkout.Checkout(context.Background(), c.sess, user)
	return err
}

func (c *checkoutTestContext) anOrderIsRecordedWithTotalForTable(total, tableNumber string) error {
	if c.order == nil {
		return fmt.Errorf("no order was placed")
	}
	stored, found, err := c.store.Orders().FindByNumber(context.Background(), c.order.Number)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("order %s not stored", c.order.Number)
	}
	if got := stored.Total.StringFixed(2); got != total {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	if stored.TableNumber == nil || *stored.TableNumber != tableNumber {
		return fmt.Errorf("expected table %s, got %v", tableNumber, stored.TableNumber)
	}
	if stored.Status != domain.StatusPending {
		return fmt.Errorf("expected pending order, got %s", stored.Status)
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	items, err := c.ledger.Items(context.Background(), c.sess)
	if err != nil {
		return err
	}
	if len(items) != 0 {
		return fmt.Errorf("expected empty cart, got %d lines", len(items))
	}
	return nil
}

func (c *checkoutTestContext) hasPointsAndTier(email string, points int, tier string) error {
	user, found, err := c.store.Users().FindByEmail(context.Background(), email)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no customer %s", email)
	}
	if user.Points != points {
		return fmt.Errorf("expected %d points, got %d", points, user.Points)
	}
	if string(user.Tier()) != tier {
		return fmt.Errorf("expected tier %s, got %s", tier, user.Tier())
	}
	return nil
}

func (c *checkoutTestContext) theGiftCardBalanceIs(code, balance string) error {
	card, found, err := c.store.GiftCards().FindByCode(context.Background(), code)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("gift card %s not found", code)
	}
	if got := card.Balance.StringFixed(2); got != balance {
		return fmt.Errorf("expected balance %s, got %s", balance, got)
	}
	return nil
}

func (c *checkoutTestContext) theRequestFailsWith(message string) error {
	if c.err == nil {
		return fmt.Errorf("expected failure %q, got success", message)
	}
	if !strings.Contains(c.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Given steps
	ctx.Step(`^the menu is loaded$`, tc.theMenuIsLoaded)
	ctx.Step(`^the gift card "([^"]*)" has a balance of (\d+\.\d{2})$`, tc.theGiftCardHasABalanceOf)
	ctx.Step(`^a customer "([^"]*)" with (\d+) points$`, tc.aCustomerWithPoints)
	ctx.Step(`^I scanned "([^"]*)"$`, tc.iScanned)

	// When steps
	ctx.Step(`^I add (\d+) "([^"]*)" with "([^"]*)"$`, tc.iAdd)
	ctx.Step(`^I try to add (\d+) "([^"]*)" with "([^"]*)"$`, tc.iTryToAdd)
	ctx.Step(`^I apply the gift card "([^"]*)"$`, tc.iApplyTheGiftCard)
	ctx.Step(`^I check out as a guest$`, tc.iCheckOutAsAGuest)
	ctx.Step(`^I try to check out as a guest$`, tc.iTryToCheckOutAsAGuest)
	ctx.Step(`^I check out as "([^"]*)"$`, tc.iCheckOutAs)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines? with unit price (\d+\.\d{2})$`, tc.theCartHasLineWithUnitPrice)
	ctx.Step(`^the cart has (\d+) lines? with quantity (\d+)$`, tc.theCartHasLineWithQuantity)
	ctx.Step(`^the subtotal is (\d+\.\d{2})$`, tc.theSubtotalIs)
	ctx.Step(`^the total is (\d+\.\d{2})$`, tc.theTotalIs)
	ctx.Step(`^(\d+\.\d{2}) is applied from the gift card$`, tc.isAppliedFromTheGiftCard)
	ctx.Step(`^an order is recorded with total (\d+\.\d{2}) for table (\d+)$`, tc.anOrderIsRecordedWithTotalForTable)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^"([^"]*)" has (\d+) points and tier "([^"]*)"$`, tc.hasPointsAndTier)
	ctx.Step(`^the gift card "([^"]*)" has (\d+\.\d{2}) left$`, tc.theGiftCardBalanceIs)
	ctx.Step(`^the request fails with "([^"]*)"$`, tc.theRequestFailsWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
