package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type productRepository struct {
	db DB
}

func NewProductRepository(db DB) interfaces.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, category, image, available, popular, customizable, options`

func scanProduct(row Row) (*domain.Product, error) {
	var (
		p       domain.Product
		options []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image,
		&p.Available, &p.Popular, &p.Customizable, &options); err != nil {
		return nil, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options of %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find product: %w", err)
	}
	return p, true, nil
}

func (r *productRepository) Upsert(ctx context.Context, p *domain.Product) error {
	options, err := json.Marshal(p.Options)
	if err != nil {
		return err
	}
	if p.Options == nil {
		options = []byte("[]")
	}

	query := `
		INSERT INTO products (id, name, description, price, category, image, available, popular, customizable, options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
			category = EXCLUDED.category, image = EXCLUDED.image, available = EXCLUDED.available,
			popular = EXCLUDED.popular, customizable = EXCLUDED.customizable, options = EXCLUDED.options
	`
	_, err = r.db.Exec(ctx, query, p.ID, p.Name, p.Description, p.Price, p.Category, p.Image,
		p.Available, p.Popular, p.Customizable, options)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}
