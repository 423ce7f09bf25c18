package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type baristaRepository struct {
	db DB
}

func NewBaristaRepository(db DB) interfaces.BaristaRepository {
	return &baristaRepository{db: db}
}

const baristaColumns = `id, name, station, status, last_seen, orders_processed, created_at`

func scanBarista(row Row) (*domain.Barista, error) {
	var b domain.Barista
	if err := row.Scan(&b.ID, &b.Name, &b.Station, &b.Status, &b.LastSeen, &b.OrdersProcessed, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *baristaRepository) Create(ctx context.Context, b *domain.Barista) error {
	query := `
		INSERT INTO baristas (name, station, status, last_seen, orders_processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, b.Name, b.Station, b.Status, b.LastSeen, b.OrdersProcessed, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to create barista: %w", err)
	}
	return nil
}

func (r *baristaRepository) FindByName(ctx context.Context, name string) (*domain.Barista, bool, error) {
	b, err := scanBarista(r.db.QueryRow(ctx, `SELECT `+baristaColumns+` FROM baristas WHERE name = $1`, name))
	if isNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find barista: %w", err)
	}
	return b, true, nil
}

func (r *baristaRepository) Update(ctx context.Context, b *domain.Barista) error {
	query := `
		UPDATE baristas
		SET station = $1, status = $2, last_seen = $3
		WHERE name = $4
	`
	tag, err := r.db.Exec(ctx, query, b.Station, b.Status, b.LastSeen, b.Name)
	if err != nil {
		return fmt.Errorf("failed to update barista: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *baristaRepository) Heartbeat(ctx context.Context, name string) error {
	query := `
		UPDATE baristas
		SET last_seen = $1, status = $2
		WHERE name = $3
	`
	_, err := r.db.Exec(ctx, query, time.Now(), domain.BaristaStatusOnline, name)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *baristaRepository) ListAll(ctx context.Context) ([]*domain.Barista, error) {
	rows, err := r.db.Query(ctx, `SELECT `+baristaColumns+` FROM baristas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list baristas: %w", err)
	}
	defer rows.Close()

	var baristas []*domain.Barista
	for rows.Next() {
		b, err := scanBarista(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan barista: %w", err)
		}
		baristas = append(baristas, b)
	}
	return baristas, rows.Err()
}

func (r *baristaRepository) IncrementOrdersProcessed(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE baristas SET orders_processed = orders_processed + 1 WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to increment orders processed: %w", err)
	}
	return nil
}
