package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, number, type, table_number, session_id, customer_id, customer_name,
	subtotal, tax, gift_card_code, gift_card_amount, total, points_earned,
	priority, status, processed_by, created_at, updated_at, completed_at`

func scanOrder(row Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.Type, &o.TableNumber, &o.SessionID, &o.CustomerID, &o.CustomerName,
		&o.Subtotal, &o.Tax, &o.GiftCardCode, &o.GiftCardAmount, &o.Total, &o.PointsEarned,
		&o.Priority, &o.Status, &o.ProcessedBy, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GenerateOrderNumber draws from a sequence, so numbers stay unique across
// concurrent storefront instances.
func (r *orderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to draw order number: %w", err)
	}
	return fmt.Sprintf("ORD_%s_%04d", time.Now().UTC().Format("20060102"), seq), nil
}

// PlaceOrder stores the order with its items and first status log, debits
// the gift card and credits the customer's points in one transaction.
func (r *orderRepository) PlaceOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Списание подарочной карты: баланс не может уйти в минус
	if order.GiftCardCode != nil && order.GiftCardAmount.IsPositive() {
		query := `
			UPDATE gift_cards
			SET balance = balance - $1, is_redeemed = (balance - $1 = 0)
			WHERE code = $2 AND balance >= $1
		`
		tag, err := tx.Exec(ctx, query, order.GiftCardAmount, domain.CanonicalGiftCardCode(*order.GiftCardCode))
		if err != nil {
			return fmt.Errorf("failed to debit gift card: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrGiftCardBalanceChanged
		}
	}

	query := `
		INSERT INTO orders (number, type, table_number, session_id, customer_id, customer_name,
		                    subtotal, tax, gift_card_code, gift_card_amount, total, points_earned,
		                    priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		order.Number, order.Type, order.TableNumber, order.SessionID, order.CustomerID, order.CustomerName,
		order.Subtotal, order.Tax, order.GiftCardCode, order.GiftCardAmount, order.Total, order.PointsEarned,
		order.Priority, order.Status, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		options, err := json.Marshal(item.Options)
		if err != nil {
			return err
		}
		if item.Options == nil {
			options = []byte("[]")
		}

		itemQuery := `
			INSERT INTO order_items (order_id, line_id, product_id, name, quantity, price, options)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		err = tx.QueryRow(ctx, itemQuery,
			order.ID, item.LineID, item.ProductID, item.Name, item.Quantity, item.Price, options,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		item.OrderID = order.ID
	}

	_, err = tx.Exec(ctx, `INSERT INTO order_status_log (order_id, status, changed_by, changed_at) VALUES ($1, $2, $3, $4)`,
		order.ID, order.Status, "storefront", order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}

	// Баллы лояльности начисляются в той же транзакции
	if order.CustomerID != nil {
		tag, err := tx.Exec(ctx, `UPDATE users SET points = points + $1, updated_at = $2 WHERE id = $3`,
			order.PointsEarned, order.CreatedAt, *order.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to award points: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("customer %s: %w", *order.CustomerID, domain.ErrNotFound)
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, bool, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number))
	if isNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, false, err
	}
	return order, true, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, line_id, product_id, name, quantity, price, options FROM order_items WHERE order_id = $1 ORDER BY id`,
		order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    domain.OrderItem
			options []byte
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.LineID, &item.ProductID, &item.Name,
			&item.Quantity, &item.Price, &options); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if err := json.Unmarshal(options, &item.Options); err != nil {
			return fmt.Errorf("failed to decode item options: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (r *orderRepository) List(ctx context.Context, f interfaces.OrderFilter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus writes the new status only if the stored one is still from,
// so two baristas can never both claim an order.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order, from domain.Status, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status = $1, processed_by = $2, updated_at = $3, completed_at = $4
		WHERE id = $5 AND status = $6
	`
	tag, err := tx.Exec(ctx, query, order.Status, order.ProcessedBy, order.UpdatedAt, order.CompletedAt, order.ID, from)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidStatusTransition
	}

	_, err = tx.Exec(ctx, `INSERT INTO order_status_log (order_id, status, changed_by, changed_at) VALUES ($1, $2, $3, $4)`,
		order.ID, order.Status, changedBy, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

func (r *orderRepository) Stats(ctx context.Context, since time.Time) (interfaces.OrderStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'preparing'),
			COUNT(*) FILTER (WHERE status = 'ready'),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COALESCE(SUM(total) FILTER (WHERE created_at >= $1), 0)
		FROM orders
	`
	var s interfaces.OrderStats
	err := r.db.QueryRow(ctx, query, since).Scan(&s.Pending, &s.Preparing, &s.Ready, &s.Count, &s.Revenue)
	if err != nil {
		return interfaces.OrderStats{}, fmt.Errorf("failed to load order stats: %w", err)
	}
	return s, nil
}
