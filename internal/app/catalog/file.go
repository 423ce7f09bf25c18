package catalog

import (
	"fmt"
	"os"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type menuFile struct {
	Products []menuProduct `yaml:"products"`
}

type menuProduct struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Price        float64      `yaml:"price"`
	Category     string       `yaml:"category"`
	Image        string       `yaml:"image"`
	Available    bool         `yaml:"available"`
	Popular      bool         `yaml:"popular"`
	Customizable bool         `yaml:"customizable"`
	Options      []menuOption `yaml:"options"`
}

type menuOption struct {
	Name    string       `yaml:"name"`
	Choices []menuChoice `yaml:"choices"`
}

type menuChoice struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

// LoadFile reads a menu seed file.
func LoadFile(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}
	return ParseMenu(raw)
}

func ParseMenu(raw []byte) ([]domain.Product, error) {
	var file menuFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}

	seen := make(map[string]bool, len(file.Products))
	products := make([]domain.Product, 0, len(file.Products))
	for _, mp := range file.Products {
		p, err := mp.toDomain()
		if err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = true
		products = append(products, p)
	}
	return products, nil
}

func (mp menuProduct) toDomain() (domain.Product, error) {
	if mp.ID == "" || mp.Name == "" {
		return domain.Product{}, fmt.Errorf("product id and name are required")
	}
	category := domain.Category(mp.Category)
	if !category.IsValid() {
		return domain.Product{}, fmt.Errorf("product %s: unknown category %q", mp.ID, mp.Category)
	}
	if mp.Price < 0 {
		return domain.Product{}, fmt.Errorf("product %s: negative price", mp.ID)
	}

	p := domain.Product{
		ID:           mp.ID,
		Name:         mp.Name,
		Description:  mp.Description,
		Price:        decimal.NewFromFloat(mp.Price).Round(2),
		Category:     category,
		Image:        mp.Image,
		Available:    mp.Available,
		Popular:      mp.Popular,
		Customizable: mp.Customizable,
	}
	for _, mo := range mp.Options {
		if len(mo.Choices) == 0 {
			return domain.Product{}, fmt.Errorf("product %s: option %s has no choices", mp.ID, mo.Name)
		}
		group := domain.OptionGroup{Name: mo.Name}
		for _, mc := range mo.Choices {
			group.Choices = append(group.Choices, domain.Choice{
				ID:    mc.ID,
				Name:  mc.Name,
				Price: decimal.NewFromFloat(mc.Price).Round(2),
			})
		}
		p.Options = append(p.Options, group)
	}
	return p, nil
}
