package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

func TestValidateTiersAcceptsDisjointRanges(t *testing.T) {
	err := ValidateTiers([]models.PricingTier{
		tier(50, nil, "8.00"),
		tier(10, intPtr(49), "9.00"),
	})
	assert.NoError(t, err)
	assert.NoError(t, ValidateTiers(nil))
}

func TestValidateTiersRejectsProblems(t *testing.T) {
	cases := map[string][]models.PricingTier{
		"overlap":        {tier(10, intPtr(60), "9.00"), tier(50, nil, "8.00")},
		"two open":       {tier(10, nil, "9.00"), tier(50, nil, "8.00")},
		"inverted range": {tier(10, intPtr(5), "9.00")},
		"zero min":       {tier(0, nil, "9.00")},
		"zero price":     {{MinQuantity: 1, Price: decimal.Zero}},
	}
	for name, tiers := range cases {
		err := ValidateTiers(tiers)
		require.Error(t, err, name)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}
}
