package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryCoffee    Category = "coffee"
	CategoryTea       Category = "tea"
	CategoryPastry    Category = "pastry"
	CategoryColdDrink Category = "cold-drink"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryCoffee, CategoryTea, CategoryPastry, CategoryColdDrink:
		return true
	}
	return false
}

// Choice is one selectable value of an option group.
type Choice struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OptionGroup is an ordered set of choices. A cart line carries exactly one
// choice per group.
type OptionGroup struct {
	Name    string   `json:"name"`
	Choices []Choice `json:"choices"`
}

// Product is catalog reference data. It is never mutated by ordering.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     Category        `json:"category"`
	Image        string          `json:"image"`
	Available    bool            `json:"available"`
	Popular      bool            `json:"popular"`
	Customizable bool            `json:"customizable"`
	Options      []OptionGroup   `json:"options,omitempty"`
}

// ResolveOptions turns a group name -> choice name selection into the
// snapshot stored on a cart line. Groups missing from the selection fall
// back to their first choice, the same default the menu page renders.
func (p *Product) ResolveOptions(selection map[string]string) ([]SelectedOption, error) {
	if !p.Customizable && len(selection) > 0 {
		return nil, fmt.Errorf("%w: %s is not customizable", ErrInvalidOption, p.Name)
	}

	for name := range selection {
		if p.group(name) == nil {
			return nil, fmt.Errorf("%w: unknown option %q", ErrInvalidOption, name)
		}
	}

	if len(p.Options) == 0 {
		return nil, nil
	}

	resolved := make([]SelectedOption, 0, len(p.Options))
	for _, group := range p.Options {
		if len(group.Choices) == 0 {
			continue
		}
		choice := group.Choices[0]
		if want, ok := selection[group.Name]; ok {
			found := false
			for _, c := range group.Choices {
				if c.Name == want {
					choice = c
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("%w: unknown choice %q for %s", ErrInvalidOption, want, group.Name)
			}
		}
		resolved = append(resolved, SelectedOption{
			Name:   group.Name,
			Choice: choice.Name,
			Price:  choice.Price,
		})
	}
	return resolved, nil
}

// UnitPrice is the base price plus the deltas of the given options.
func (p *Product) UnitPrice(options []SelectedOption) decimal.Decimal {
	price := p.Price
	for _, o := range options {
		price = price.Add(o.Price)
	}
	return price
}

func (p *Product) group(name string) *OptionGroup {
	for i := range p.Options {
		if p.Options[i].Name == name {
			return &p.Options[i]
		}
	}
	return nil
}
