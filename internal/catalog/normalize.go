package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/yield-planner/pkg/constants"
	"github.com/iwvelando/yield-planner/pkg/mathutil"
	"github.com/spf13/cast"
)

// Record is the loosely-typed shape catalog entries arrive in from storage,
// configuration files or HTTP payloads.
type Record = map[string]interface{}

// NormalizeTariff builds a Tariff from an untrusted record. Missing or
// non-numeric fields fall back to documented defaults; it never fails.
func NormalizeTariff(raw Record) Tariff {
	days := floatField(raw, "durationDays", constants.DefaultTariffDurationDays)
	if days > constants.MaxTariffDurationDays {
		days = constants.MaxTariffDurationDays
	}
	t := Tariff{
		ID:           stringField(raw, "id", ""),
		DurationDays: int(days),
		DailyRate:    mathutil.NonNegative(floatField(raw, "dailyRate", constants.DefaultTariffDailyRate)),
		MinLevel:     int(floatField(raw, "minLevel", 0)),
		BaseMin:      mathutil.NonNegative(floatField(raw, "baseMin", constants.DefaultTariffBaseMin)),
		BaseMax:      mathutil.NonNegative(floatField(raw, "baseMax", constants.DefaultTariffBaseMax)),
		Limited:      boolField(raw, "limited"),
		Category:     CategoryPlan,
		Access:       AccessLevel,
	}
	t.Name = stringField(raw, "name", t.ID)
	t.RequiredSubscription = stringField(raw, "requiredSubscription", "")

	if t.DurationDays <= 0 {
		t.DurationDays = constants.DefaultTariffDurationDays
	}
	if exactField(raw, "category") == string(CategoryProgram) {
		t.Category = CategoryProgram
		t.EntryFee = mathutil.NonNegative(floatField(raw, "entryFee", 0))
	}
	access := exactField(raw, "access")
	if access == "" {
		access = exactField(raw, "accessMode")
	}
	if access == string(AccessOpen) {
		t.Access = AccessOpen
	}
	if t.Limited {
		if slots := int(floatField(raw, "capacitySlots", 0)); slots > 0 {
			t.CapacitySlots = &slots
		}
	}
	if principal := floatField(raw, "recommendedPrincipal", 0); principal > 0 {
		t.RecommendedPrincipal = &principal
	}
	return t
}

// NormalizeBooster builds a Booster from an untrusted record.
func NormalizeBooster(raw Record) Booster {
	b := Booster{
		ID:                stringField(raw, "id", ""),
		DurationHours:     floatField(raw, "durationHours", constants.DefaultBoosterDurationHours),
		Price:             mathutil.NonNegative(floatField(raw, "price", 0)),
		MinLevel:          int(floatField(raw, "minLevel", 0)),
		PerPortfolioLimit: int(floatField(raw, "perPortfolioLimit", constants.DefaultBoosterLimit)),
		Scope:             ScopeAccount,
		Effect:            normalizeEffect(raw),
	}
	b.Name = stringField(raw, "name", b.ID)
	b.RequiredSubscription = stringField(raw, "requiredSubscription", "")

	if b.DurationHours <= 0 {
		b.DurationHours = constants.DefaultBoosterDurationHours
	}
	if b.PerPortfolioLimit <= 0 {
		b.PerPortfolioLimit = constants.DefaultBoosterLimit
	}
	if stringField(raw, "scope", "") == string(ScopeTariff) {
		b.Scope = ScopeTariff
	}
	if blocked, ok := lookup(raw, "blockedTariffIds"); ok && blocked != nil {
		if ids, err := cast.ToStringSliceE(blocked); err == nil {
			b.BlockedTariffIDs = dedupe(ids)
		}
	}
	return b
}

func normalizeEffect(raw Record) Effect {
	effect := Effect{Kind: constants.DefaultBoosterEffectKind}
	if nested, ok := lookup(raw, "effect"); ok && nested != nil {
		if m, err := cast.ToStringMapE(nested); err == nil {
			if kind := stringField(m, "type", ""); kind != "" {
				effect.Kind = EffectKind(kind)
			}
			effect.Value = mathutil.NonNegative(floatField(m, "value", 0))
			return effect
		}
	}
	effect.Value = mathutil.NonNegative(floatField(raw, "effectValue", 0))
	return effect
}

// NormalizeSubscription builds a Subscription from an untrusted record.
func NormalizeSubscription(raw Record) Subscription {
	s := Subscription{
		ID:       stringField(raw, "id", ""),
		FeeRate:  mathutil.Clamp01(floatField(raw, "feeRate", 0)),
		Price:    mathutil.NonNegative(floatField(raw, "price", 0)),
		MinLevel: int(floatField(raw, "minLevel", 0)),
	}
	s.Name = stringField(raw, "name", s.ID)
	return s
}

// NormalizePricingControls builds PricingControls from an untrusted record,
// starting from DefaultPricingControls.
func NormalizePricingControls(raw Record) PricingControls {
	d := DefaultPricingControls()
	pc := PricingControls{
		BaseCapturePct:      mathutil.Clamp(floatField(raw, "baseCapturePct", d.BaseCapturePct), 0, 100),
		WhaleCapturePct:     mathutil.Clamp(floatField(raw, "whaleCapturePct", d.WhaleCapturePct), 0, 100),
		InvestorRoiFloorPct: mathutil.NonNegative(floatField(raw, "investorRoiFloorPct", d.InvestorRoiFloorPct)),
		MinPrice:            mathutil.NonNegative(floatField(raw, "minPrice", d.MinPrice)),
		MaxPrice:            mathutil.NonNegative(floatField(raw, "maxPrice", d.MaxPrice)),
	}
	if pc.MaxPrice < pc.MinPrice {
		pc.MaxPrice = pc.MinPrice
	}
	return pc
}

// NormalizeTariffs normalizes a list of tariff records. Entries that are not
// records are dropped; missing ids are filled positionally.
func NormalizeTariffs(raw interface{}) []Tariff {
	records := records(raw)
	tariffs := make([]Tariff, 0, len(records))
	for i, r := range records {
		t := NormalizeTariff(r)
		if t.ID == "" {
			t.ID = fmt.Sprintf("tariff-%d", i+1)
			if t.Name == "" {
				t.Name = t.ID
			}
		}
		tariffs = append(tariffs, t)
	}
	return tariffs
}

// NormalizeBoosters normalizes a list of booster records.
func NormalizeBoosters(raw interface{}) []Booster {
	records := records(raw)
	boosters := make([]Booster, 0, len(records))
	for i, r := range records {
		b := NormalizeBooster(r)
		if b.ID == "" {
			b.ID = fmt.Sprintf("booster-%d", i+1)
			if b.Name == "" {
				b.Name = b.ID
			}
		}
		boosters = append(boosters, b)
	}
	return boosters
}

// NormalizeSubscriptions normalizes an ordered list of subscription records;
// the order is kept because it defines rank.
func NormalizeSubscriptions(raw interface{}) []Subscription {
	records := records(raw)
	subs := make([]Subscription, 0, len(records))
	for i, r := range records {
		s := NormalizeSubscription(r)
		if s.ID == "" {
			s.ID = fmt.Sprintf("subscription-%d", i+1)
			if s.Name == "" {
				s.Name = s.ID
			}
		}
		subs = append(subs, s)
	}
	return subs
}

// NormalizeCatalog normalizes a full catalog record.
func NormalizeCatalog(raw Record) Catalog {
	c := Catalog{
		Subscriptions:   NormalizeSubscriptions(field(raw, "subscriptions")),
		Tariffs:         NormalizeTariffs(field(raw, "tariffs")),
		Boosters:        NormalizeBoosters(field(raw, "boosters")),
		PricingControls: DefaultPricingControls(),
	}
	if pc, ok := lookup(raw, "pricingControls"); ok && pc != nil {
		if m, err := cast.ToStringMapE(pc); err == nil {
			c.PricingControls = NormalizePricingControls(m)
		}
	}
	return c
}

func records(raw interface{}) []Record {
	if raw == nil {
		return nil
	}
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if m, err := cast.ToStringMapE(item); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// lookup finds key exactly, then ignoring case. Viper lowercases the keys of
// everything it reads.
func lookup(raw Record, key string) (interface{}, bool) {
	if v, ok := raw[key]; ok {
		return v, true
	}
	for k, v := range raw {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func field(raw Record, key string) interface{} {
	v, _ := lookup(raw, key)
	return v
}

func floatField(raw Record, key string, def float64) float64 {
	v, ok := lookup(raw, key)
	if !ok || v == nil {
		return def
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return def
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// exactField returns the untrimmed string value of key, or "" when absent.
func exactField(raw Record, key string) string {
	v, ok := lookup(raw, key)
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

func stringField(raw Record, key, def string) string {
	v, ok := lookup(raw, key)
	if !ok || v == nil {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func boolField(raw Record, key string) bool {
	v, ok := lookup(raw, key)
	if !ok || v == nil {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
