package cost

// Rates holds provider pricing configuration.
type Rates struct {
	Apollo ApolloRate `yaml:"apollo" mapstructure:"apollo"`
	Google GoogleRate `yaml:"google" mapstructure:"google"`
}

// ApolloRate holds enrichment provider pricing.
type ApolloRate struct {
	// USDPerCredit is the marginal price of one export credit.
	USDPerCredit float64 `yaml:"usd_per_credit" mapstructure:"usd_per_credit"`
	// PlanMonthly and CreditsIncluded describe the subscription, used to
	// derive an effective per-credit price when USDPerCredit is unset.
	PlanMonthly     float64 `yaml:"plan_monthly" mapstructure:"plan_monthly"`
	CreditsIncluded float64 `yaml:"credits_included" mapstructure:"credits_included"`
}

// GoogleRate holds Places API pricing.
type GoogleRate struct {
	PerTextSearch float64 `yaml:"per_text_search" mapstructure:"per_text_search"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// CreditPrice returns the effective USD price of one provider credit.
func (c *Calculator) CreditPrice() float64 {
	if c.rates.Apollo.USDPerCredit > 0 {
		return c.rates.Apollo.USDPerCredit
	}
	if c.rates.Apollo.CreditsIncluded > 0 {
		return c.rates.Apollo.PlanMonthly / c.rates.Apollo.CreditsIncluded
	}
	return 0
}

// Credits computes the USD cost of the given number of provider credits.
func (c *Calculator) Credits(credits int) float64 {
	return float64(credits) * c.CreditPrice()
}

// Snapshot computes the USD cost of a ledger snapshot.
func (c *Calculator) Snapshot(s Snapshot) float64 {
	return c.Credits(s.Credits)
}

// TextSearch computes the cost of n Places text searches.
func (c *Calculator) TextSearch(n int) float64 {
	return float64(n) * c.rates.Google.PerTextSearch
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Apollo: ApolloRate{PlanMonthly: 49.00, CreditsIncluded: 1000},
		Google: GoogleRate{PerTextSearch: 0.032},
	}
}
