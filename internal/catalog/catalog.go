// Package catalog defines the plain data the computation engine consumes:
// subscriptions, tariffs, boosters, pricing controls and portfolios.
package catalog

// AccessMode decides whether a tariff is gated by user level.
type AccessMode string

// Category distinguishes ordinary plans from entry-fee programs.
type Category string

// Scope decides which boosters take part in dynamic pricing.
type Scope string

const (
	AccessLevel AccessMode = "level"
	AccessOpen  AccessMode = "open"

	CategoryPlan    Category = "plan"
	CategoryProgram Category = "program"

	ScopeAccount Scope = "account"
	ScopeTariff  Scope = "tariff"
)

// Subscription is a fee tier. Its position in Catalog.Subscriptions is its rank.
type Subscription struct {
	ID       string  `yaml:"id" json:"id" mapstructure:"id"`
	Name     string  `yaml:"name" json:"name" mapstructure:"name"`
	FeeRate  float64 `yaml:"feeRate" json:"feeRate" mapstructure:"feeRate"`
	Price    float64 `yaml:"price" json:"price" mapstructure:"price"`
	MinLevel int     `yaml:"minLevel" json:"minLevel" mapstructure:"minLevel"`
}

// Tariff is a fixed-duration deposit plan with a daily yield rate.
type Tariff struct {
	ID                   string     `yaml:"id" json:"id"`
	Name                 string     `yaml:"name" json:"name"`
	DurationDays         int        `yaml:"durationDays" json:"durationDays"`
	DailyRate            float64    `yaml:"dailyRate" json:"dailyRate"`
	MinLevel             int        `yaml:"minLevel" json:"minLevel"`
	BaseMin              float64    `yaml:"baseMin" json:"baseMin"`
	BaseMax              float64    `yaml:"baseMax" json:"baseMax"` // 0 means no upper bound
	RequiredSubscription string     `yaml:"requiredSubscription,omitempty" json:"requiredSubscription,omitempty"`
	Access               AccessMode `yaml:"access" json:"access"`
	Limited              bool       `yaml:"limited" json:"limited"`
	CapacitySlots        *int       `yaml:"capacitySlots,omitempty" json:"capacitySlots,omitempty"`
	Category             Category   `yaml:"category" json:"category"`
	EntryFee             float64    `yaml:"entryFee" json:"entryFee"`
	RecommendedPrincipal *float64   `yaml:"recommendedPrincipal,omitempty" json:"recommendedPrincipal,omitempty"`
}

// IsProgram reports whether the tariff charges a one-time entry fee.
func (t Tariff) IsProgram() bool {
	return t.Category == CategoryProgram
}

// ProgramFee returns the entry fee charged for one deposit on this tariff.
func (t Tariff) ProgramFee() float64 {
	if !t.IsProgram() {
		return 0
	}
	return t.EntryFee
}

// AcceptsAmount reports whether amount lies within the deposit bounds.
func (t Tariff) AcceptsAmount(amount float64) bool {
	if amount < t.BaseMin {
		return false
	}
	return t.BaseMax <= 0 || amount <= t.BaseMax
}

// Booster is a temporary multiplicative yield bonus bought for a portfolio.
type Booster struct {
	ID                   string   `yaml:"id" json:"id"`
	Name                 string   `yaml:"name" json:"name"`
	Effect               Effect   `yaml:"effect" json:"effect"`
	DurationHours        float64  `yaml:"durationHours" json:"durationHours"`
	Price                float64  `yaml:"price" json:"price"`
	MinLevel             int      `yaml:"minLevel" json:"minLevel"`
	RequiredSubscription string   `yaml:"requiredSubscription,omitempty" json:"requiredSubscription,omitempty"`
	BlockedTariffIDs     []string `yaml:"blockedTariffIds,omitempty" json:"blockedTariffIds,omitempty"`
	PerPortfolioLimit    int      `yaml:"perPortfolioLimit" json:"perPortfolioLimit"`
	Scope                Scope    `yaml:"scope" json:"scope"`
}

// Blocks reports whether the booster is excluded from the given tariff.
func (b Booster) Blocks(tariffID string) bool {
	for _, id := range b.BlockedTariffIDs {
		if id == tariffID {
			return true
		}
	}
	return false
}

// EffectValue is the fractional yield bonus the booster grants at full coverage.
func (b Booster) EffectValue() float64 {
	return b.Effect.MultiplierBonus()
}

// Limit is the number of times the booster may be stacked on one portfolio.
func (b Booster) Limit() int {
	if b.PerPortfolioLimit <= 0 {
		return 1
	}
	return b.PerPortfolioLimit
}

// PricingControls bound the dynamic booster price.
type PricingControls struct {
	BaseCapturePct      float64 `yaml:"baseCapturePct" json:"baseCapturePct"`
	WhaleCapturePct     float64 `yaml:"whaleCapturePct" json:"whaleCapturePct"`
	InvestorRoiFloorPct float64 `yaml:"investorRoiFloorPct" json:"investorRoiFloorPct"`
	MinPrice            float64 `yaml:"minPrice" json:"minPrice"`
	MaxPrice            float64 `yaml:"maxPrice" json:"maxPrice"`
}

// DefaultPricingControls returns the controls used when none are configured.
func DefaultPricingControls() PricingControls {
	return PricingControls{
		BaseCapturePct:      20,
		WhaleCapturePct:     10,
		InvestorRoiFloorPct: 50,
		MinPrice:            1,
		MaxPrice:            10000,
	}
}

// PortfolioItem is one deposit on one tariff.
type PortfolioItem struct {
	ID       string  `yaml:"id" json:"id" mapstructure:"id"`
	TariffID string  `yaml:"tariffId" json:"tariffId" mapstructure:"tariffId"`
	Amount   float64 `yaml:"amount" json:"amount" mapstructure:"amount"`
}

// Portfolio is an ordered list of deposits with unique ids.
type Portfolio []PortfolioItem

// Find returns the item with the given id.
func (p Portfolio) Find(id string) (PortfolioItem, bool) {
	for _, item := range p {
		if item.ID == id {
			return item, true
		}
	}
	return PortfolioItem{}, false
}

// CountByTariff counts the open items referencing a tariff.
func (p Portfolio) CountByTariff(tariffID string) int {
	n := 0
	for _, item := range p {
		if item.TariffID == tariffID {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the portfolio.
func (p Portfolio) Clone() Portfolio {
	if p == nil {
		return nil
	}
	return append(Portfolio(nil), p...)
}

// InvestorSegment is a group of identical investors used by the reserve simulation.
type InvestorSegment struct {
	Name           string    `yaml:"name" json:"name" mapstructure:"name"`
	InvestorsCount int       `yaml:"investorsCount" json:"investorsCount" mapstructure:"investorsCount"`
	UserLevel      int       `yaml:"userLevel" json:"userLevel" mapstructure:"userLevel"`
	SubscriptionID string    `yaml:"subscription" json:"subscription" mapstructure:"subscription"`
	BoosterIDs     []string  `yaml:"boosters" json:"boosters" mapstructure:"boosters"`
	Portfolio      Portfolio `yaml:"portfolio" json:"portfolio" mapstructure:"portfolio"`
}

// Catalog is the immutable snapshot of everything a user can buy.
type Catalog struct {
	Subscriptions   []Subscription  `yaml:"subscriptions" json:"subscriptions"`
	Tariffs         []Tariff        `yaml:"tariffs" json:"tariffs"`
	Boosters        []Booster       `yaml:"boosters" json:"boosters"`
	PricingControls PricingControls `yaml:"pricingControls" json:"pricingControls"`
}

// Tariff looks up a tariff by id.
func (c Catalog) Tariff(id string) (Tariff, bool) {
	for _, t := range c.Tariffs {
		if t.ID == id {
			return t, true
		}
	}
	return Tariff{}, false
}

// Booster looks up a booster by id.
func (c Catalog) Booster(id string) (Booster, bool) {
	for _, b := range c.Boosters {
		if b.ID == id {
			return b, true
		}
	}
	return Booster{}, false
}

// Subscription looks up a subscription by id.
func (c Catalog) Subscription(id string) (Subscription, bool) {
	for _, s := range c.Subscriptions {
		if s.ID == id {
			return s, true
		}
	}
	return Subscription{}, false
}

// SubscriptionIndex returns the catalog position of a subscription, or -1.
func (c Catalog) SubscriptionIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range c.Subscriptions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

