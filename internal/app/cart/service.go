package cart

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/lucsky/cuid"
	"github.com/shopspring/decimal"
)

// Ledger applies cart mutations to a session. Each mutation is persisted
// before it becomes visible.
type Ledger struct {
	logger       logger.Logger
	requireTable bool
	newLineID    func() string
}

func NewLedger(logger logger.Logger, requireTable bool) *Ledger {
	return &Ledger{
		logger:       logger,
		requireTable: requireTable,
		newLineID:    cuid.New,
	}
}

// AddItem resolves the selection against the product and merges the line
// into the cart. Adding is refused without a bound table when ordering is
// table-gated. A quantity below one is refused here so non-HTTP callers
// cannot store an empty line.
func (l *Ledger) AddItem(ctx context.Context, sess *session.Session, product *domain.Product, quantity int, selection map[string]string) (domain.LineItem, error) {
	if !product.Available {
		return domain.LineItem{}, domain.ErrProductUnavailable
	}
	if quantity < 1 {
		return domain.LineItem{}, domain.ErrInvalidQuantity
	}

	options, err := product.ResolveOptions(selection)
	if err != nil {
		return domain.LineItem{}, err
	}

	var added domain.LineItem
	var merged bool
	err = sess.Do(ctx, func(st *session.State) error {
		table := st.Table()
		if l.requireTable && !table.HasActiveTable() {
			return domain.ErrTableRequired
		}

		cart := st.Cart()
		added, merged = cart.AddItem(l.newLineID(), product, quantity, options)
		return st.SaveCart(ctx, cart)
	})
	if err != nil {
		return domain.LineItem{}, err
	}

	l.logger.Info("cart_item_added", fmt.Sprintf("Added %d x %s", quantity, product.Name), sess.ID(), map[string]interface{}{
		"line_id":    added.ID,
		"product_id": product.ID,
		"quantity":   added.Quantity,
		"merged":     merged,
	})
	return added, nil
}

// UpdateQuantity expects quantity already clamped by the caller.
func (l *Ledger) UpdateQuantity(ctx context.Context, sess *session.Session, lineID string, quantity int) (bool, error) {
	var found bool
	err := sess.Do(ctx, func(st *session.State) error {
		cart := st.Cart()
		if found = cart.UpdateQuantity(lineID, quantity); !found {
			return nil
		}
		return st.SaveCart(ctx, cart)
	})
	if err != nil {
		return false, err
	}

	if found {
		l.logger.Debug("cart_item_updated", "Cart line quantity updated", sess.ID(), map[string]interface{}{
			"line_id":  lineID,
			"quantity": quantity,
		})
	}
	return found, nil
}

// RemoveItem is a no-op for an unknown line.
func (l *Ledger) RemoveItem(ctx context.Context, sess *session.Session, lineID string) error {
	return sess.Do(ctx, func(st *session.State) error {
		cart := st.Cart()
		if !cart.RemoveItem(lineID) {
			return nil
		}
		if err := st.SaveCart(ctx, cart); err != nil {
			return err
		}
		l.logger.Debug("cart_item_removed", "Cart line removed", sess.ID(), map[string]interface{}{"line_id": lineID})
		return nil
	})
}

func (l *Ledger) Clear(ctx context.Context, sess *session.Session) error {
	return sess.Do(ctx, func(st *session.State) error {
		if err := st.SaveCart(ctx, domain.Cart{}); err != nil {
			return err
		}
		st.SetGiftCard(nil)
		l.logger.Info("cart_cleared", "Cart cleared", sess.ID(), nil)
		return nil
	})
}

func (l *Ledger) Items(ctx context.Context, sess *session.Session) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := sess.Do(ctx, func(st *session.State) error {
		items = st.Cart().Items
		return nil
	})
	return items, err
}

func (l *Ledger) Subtotal(ctx context.Context, sess *session.Session) (decimal.Decimal, error) {
	var subtotal decimal.Decimal
	err := sess.Do(ctx, func(st *session.State) error {
		cart := st.Cart()
		subtotal = cart.Subtotal()
		return nil
	})
	return subtotal, err
}
