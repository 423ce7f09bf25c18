package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// Service serves the menu from a TTL cache in front of the product
// repository.
type Service struct {
	repo   interfaces.ProductRepository
	logger logger.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	loadLock sync.Mutex
	products []domain.Product
	loadedAt time.Time
}

func NewService(repo interfaces.ProductRepository, logger logger.Logger, ttl time.Duration) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// List returns the menu, optionally narrowed to one category.
func (s *Service) List(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return append([]domain.Product(nil), products...), nil
	}

	var out []domain.Product
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, bool, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, true, nil
		}
	}
	return nil, false, nil
}

// Search matches the query against name and description, case-insensitively.
func (s *Service) Search(ctx context.Context, query string, category domain.Category) ([]domain.Product, error) {
	products, err := s.List(ctx, category)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products, nil
	}

	var out []domain.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Popular lists the products flagged for the home page.
func (s *Service) Popular(ctx context.Context) ([]domain.Product, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range products {
		if p.Popular && p.Available {
			out = append(out, p)
		}
	}
	return out, nil
}

// Import upserts products, typically parsed by LoadFile, and drops the cache.
func (s *Service) Import(ctx context.Context, products []domain.Product, progress func()) error {
	for i := range products {
		if err := s.repo.Upsert(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to import product %s: %w", products[i].ID, err)
		}
		if progress != nil {
			progress()
		}
	}
	s.Invalidate()
	s.logger.Info("catalog_imported", fmt.Sprintf("Imported %d products", len(products)), "", nil)
	return nil
}

func (s *Service) Invalidate() {
	s.mu.Lock()
	s.products = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Service) cached() ([]domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.products == nil || s.now().Sub(s.loadedAt) > s.ttl {
		return nil, false
	}
	return s.products, true
}

func (s *Service) all(ctx context.Context) ([]domain.Product, error) {
	if products, ok := s.cached(); ok {
		return products, nil
	}

	s.loadLock.Lock()
	defer s.loadLock.Unlock()

	// another request may have refilled the cache while we waited
	if products, ok := s.cached(); ok {
		return products, nil
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	s.mu.Lock()
	s.products = products
	s.loadedAt = s.now()
	s.mu.Unlock()

	s.logger.Debug("catalog_cache_refreshed", fmt.Sprintf("Loaded %d products", len(products)), "", nil)
	return products, nil
}
