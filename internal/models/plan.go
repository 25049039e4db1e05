package models

import "strings"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// DefaultCredits is the balance every new account starts with.
const DefaultCredits = 100

// PlanQuota holds the monthly per-feature caps of a plan.
type PlanQuota struct {
	Image      int
	Video      int
	Background int
}

var planQuotas = map[Plan]PlanQuota{
	PlanFree:       {Image: 50, Video: 5, Background: 20},
	PlanPro:        {Image: 1000, Video: 100, Background: 500},
	PlanEnterprise: {Image: 10000, Video: 1000, Background: 5000},
}

var upgradeCredits = map[Plan]int{
	PlanPro:        1000,
	PlanEnterprise: 5000,
}

// QuotaFor returns the caps of p. Unknown plans get the free caps.
func QuotaFor(p Plan) PlanQuota {
	if q, ok := planQuotas[p]; ok {
		return q
	}
	return planQuotas[PlanFree]
}

// ParsePlan normalizes free-form input into a known plan.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	_, ok := planQuotas[p]
	return p, ok
}

// IsUpgrade reports whether p is a plan users can buy.
func (p Plan) IsUpgrade() bool {
	_, ok := upgradeCredits[p]
	return ok
}

// UpgradeCredits is the number of credits granted when upgrading to p.
func (p Plan) UpgradeCredits() int {
	return upgradeCredits[p]
}

type FeatureType string

const (
	FeatureImage      FeatureType = "image"
	FeatureVideo      FeatureType = "video"
	FeatureBackground FeatureType = "background"
)

// Cost is the number of credits debited per successful operation.
func (f FeatureType) Cost() int {
	switch f {
	case FeatureVideo:
		return 5
	case FeatureImage, FeatureBackground:
		return 1
	default:
		return 0
	}
}

// CounterColumn is the users column incremented on every debit of f.
func (f FeatureType) CounterColumn() string {
	switch f {
	case FeatureImage:
		return "images_generated"
	case FeatureVideo:
		return "videos_generated"
	case FeatureBackground:
		return "backgrounds_removed"
	default:
		return ""
	}
}

func (f FeatureType) Valid() bool {
	return f.CounterColumn() != ""
}
