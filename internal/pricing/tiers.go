package pricing

import (
	"fmt"
	"sort"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

// TierProblem describes one invalid tier in a catalog write.
type TierProblem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ValidateTiers rejects tier sets that are malformed or overlap. Overlapping
// ranges are resolvable at read time but indicate a catalog mistake.
func ValidateTiers(tiers []models.PricingTier) error {
	problems := []TierProblem{}
	for i, tier := range tiers {
		switch {
		case tier.MinQuantity < 1:
			problems = append(problems, TierProblem{Index: i, Reason: "min_quantity must be at least 1"})
		case tier.MaxQuantity != nil && *tier.MaxQuantity < tier.MinQuantity:
			problems = append(problems, TierProblem{Index: i, Reason: "max_quantity must be >= min_quantity"})
		case !tier.Price.IsPositive():
			problems = append(problems, TierProblem{Index: i, Reason: "price must be positive"})
		}
	}

	order := make([]int, len(tiers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tiers[order[a]].MinQuantity < tiers[order[b]].MinQuantity
	})
	for k := 1; k < len(order); k++ {
		prev, cur := tiers[order[k-1]], tiers[order[k]]
		if prev.MaxQuantity == nil || *prev.MaxQuantity >= cur.MinQuantity {
			problems = append(problems, TierProblem{
				Index:  order[k],
				Reason: fmt.Sprintf("range overlaps tier %d", order[k-1]),
			})
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid pricing tiers").
		WithDetails(map[string]any{"tiers": problems})
}
