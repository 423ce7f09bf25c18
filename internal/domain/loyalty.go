package domain

import "github.com/shopspring/decimal"

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// LoyaltyLevel describes one tier of the loyalty program.
type LoyaltyLevel struct {
	Name      Tier     `json:"name"`
	Threshold int      `json:"threshold"`
	Benefits  []string `json:"benefits"`
	Color     string   `json:"color"`
}

// LoyaltyLevels is ordered by ascending threshold.
var LoyaltyLevels = []LoyaltyLevel{
	{
		Name:      TierBronze,
		Threshold: 0,
		Benefits:  []string{"Earn 1 point per $1 spent", "Birthday reward"},
		Color:     "#CD7F32",
	},
	{
		Name:      TierSilver,
		Threshold: 300,
		Benefits:  []string{"Earn 1.5 points per $1 spent", "Birthday reward", "Free size upgrade once a month"},
		Color:     "#C0C0C0",
	},
	{
		Name:      TierGold,
		Threshold: 750,
		Benefits:  []string{"Earn 2 points per $1 spent", "Birthday reward", "Free size upgrade once a week", "Priority ordering"},
		Color:     "#FFD700",
	},
}

// TierOf returns the highest tier whose threshold is <= points. Negative
// balances map to bronze.
func TierOf(points int) Tier {
	return LevelOf(points).Name
}

func LevelOf(points int) LoyaltyLevel {
	level := LoyaltyLevels[0]
	for _, l := range LoyaltyLevels {
		if points >= l.Threshold {
			level = l
		}
	}
	return level
}

// NextLevel returns the tier above the one points currently qualify for.
func NextLevel(points int) (LoyaltyLevel, bool) {
	current := LevelOf(points)
	for i, l := range LoyaltyLevels {
		if l.Name == current.Name && i+1 < len(LoyaltyLevels) {
			return LoyaltyLevels[i+1], true
		}
	}
	return LoyaltyLevel{}, false
}

// Progress is the percentage travelled from the current tier threshold to the
// next one, clamped to [0, 100]. The top tier always reports 100.
func Progress(points int) float64 {
	current := LevelOf(points)
	next, ok := NextLevel(points)
	if !ok {
		return 100
	}
	p := float64(points-current.Threshold) / float64(next.Threshold-current.Threshold) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// PointsToNext is zero at the top tier.
func PointsToNext(points int) int {
	next, ok := NextLevel(points)
	if !ok {
		return 0
	}
	if points < 0 {
		points = 0
	}
	return next.Threshold - points
}

// PointsForTotal awards one point per whole currency unit of the final total.
func PointsForTotal(total decimal.Decimal) int {
	if total.IsNegative() {
		return 0
	}
	return int(total.Floor().IntPart())
}

// Reward is display-only catalog data; redemption is not modelled.
type Reward struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PointsCost  int    `json:"pointsCost"`
	Image       string `json:"image"`
}

var Rewards = []Reward{
	{ID: "reward-1", Name: "Free Coffee", Description: "Any small coffee of your choice", PointsCost: 100, Image: "/images/coffee-1.png"},
	{ID: "reward-2", Name: "Free Pastry", Description: "Any pastry of your choice", PointsCost: 150, Image: "/images/pastry-1.png"},
	{ID: "reward-3", Name: "10% Off Order", Description: "10% discount on your next order", PointsCost: 200, Image: "/images/cafe-interior.png"},
	{ID: "reward-4", Name: "Free Large Specialty Drink", Description: "Any large specialty drink of your choice", PointsCost: 300, Image: "/images/coffee-3.png"},
}
