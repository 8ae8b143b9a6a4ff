// Package config defines the data structures related to configuration and
// includes functions for loading, parsing and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/eligibility"
	"github.com/iwvelando/yield-planner/internal/engine"
	"github.com/iwvelando/yield-planner/internal/projection"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"github.com/iwvelando/yield-planner/pkg/validation"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. YIELD_PLANNER_ACCOUNT_USERLEVEL.
const EnvPrefix = "YIELD_PLANNER"

// Configuration holds all configuration for yield-planner.
type Configuration struct {
	Catalog  catalog.Catalog           `yaml:"catalog"`
	Account  Account                   `yaml:"account"`
	Segments []catalog.InvestorSegment `yaml:"segments,omitempty"`
	Logging  LoggingConfig             `yaml:"logging,omitempty"`
	Output   OutputConfig              `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// Account is the user the computation is run for.
type Account struct {
	UserLevel      int               `yaml:"userLevel" mapstructure:"userLevel"`
	SubscriptionID string            `yaml:"subscription" mapstructure:"subscription"`
	BoosterIDs     []string          `yaml:"boosters" mapstructure:"boosters"`
	Portfolio      catalog.Portfolio `yaml:"portfolio" mapstructure:"portfolio"`
	Reinvest       string            `yaml:"reinvest" mapstructure:"reinvest"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("account.reinvest", constants.DefaultReinvestMode)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration

	// Catalog records go through normalization rather than strict decoding so
	// a malformed entry degrades to defaults instead of failing the load.
	rawCatalog, err := cast.ToStringMapE(v.Get("catalog"))
	if err != nil && v.IsSet("catalog") {
		return nil, fmt.Errorf("unable to decode catalog: %w", err)
	}
	configuration.Catalog = catalog.NormalizeCatalog(rawCatalog)

	if err := v.UnmarshalKey("account", &configuration.Account); err != nil {
		return nil, fmt.Errorf("unable to decode account: %w", err)
	}
	if err := v.UnmarshalKey("segments", &configuration.Segments); err != nil {
		return nil, fmt.Errorf("unable to decode segments: %w", err)
	}
	if err := v.UnmarshalKey("logging", &configuration.Logging); err != nil {
		return nil, fmt.Errorf("unable to decode logging: %w", err)
	}

	// Scalars are read through Get so environment overrides apply.
	configuration.Account.UserLevel = v.GetInt("account.userLevel")
	configuration.Account.SubscriptionID = v.GetString("account.subscription")
	configuration.Account.Reinvest = v.GetString("account.reinvest")
	configuration.Logging.Level = v.GetString("logging.level")
	configuration.Output.Format = v.GetString("output.format")

	configuration.Account.Portfolio = assignItemIDs(configuration.Account.Portfolio, "item")
	for i := range configuration.Segments {
		seg := &configuration.Segments[i]
		if seg.Name == "" {
			seg.Name = fmt.Sprintf("segment-%d", i+1)
		}
		seg.Portfolio = assignItemIDs(seg.Portfolio, seg.Name)
	}

	return &configuration, nil
}

// assignItemIDs fills in missing item ids positionally.
func assignItemIDs(p catalog.Portfolio, prefix string) catalog.Portfolio {
	for i := range p {
		if p[i].ID == "" {
			p[i].ID = fmt.Sprintf("%s-%d", prefix, i+1)
		}
	}
	return p
}

// State converts the configured account and segments into an engine state.
func (c *Configuration) State() engine.State {
	return engine.State{
		Catalog:        c.Catalog,
		UserLevel:      c.Account.UserLevel,
		SubscriptionID: c.Account.SubscriptionID,
		Portfolio:      c.Account.Portfolio.Clone(),
		BoosterIDs:     append([]string(nil), c.Account.BoosterIDs...),
		Reinvest:       projection.ParseReinvestMode(c.Account.Reinvest),
		Segments:       append([]catalog.InvestorSegment(nil), c.Segments...),
	}
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	warnings := validation.ValidateCatalog(c.Catalog)

	resolver := eligibility.NewResolver(c.Catalog.Subscriptions)
	warnings = append(warnings, c.validateSelection("Account", resolver, c.Account.UserLevel, c.Account.SubscriptionID, c.Account.BoosterIDs, c.Account.Portfolio)...)

	for _, seg := range c.Segments {
		label := fmt.Sprintf("Segment '%s'", seg.Name)
		if seg.InvestorsCount <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s has no investors and does not affect the reserve", label))
		}
		warnings = append(warnings, c.validateSelection(label, resolver, seg.UserLevel, seg.SubscriptionID, seg.BoosterIDs, seg.Portfolio)...)
	}

	return warnings
}

func (c *Configuration) validateSelection(label string, resolver *eligibility.Resolver, level int, subID string, boosterIDs []string, p catalog.Portfolio) []string {
	var warnings []string

	if subID != "" {
		if sub, ok := c.Catalog.Subscription(subID); !ok {
			warnings = append(warnings, fmt.Sprintf("%s uses unknown subscription '%s' - a zero fee is assumed", label, subID))
		} else if level < sub.MinLevel {
			warnings = append(warnings, fmt.Sprintf("%s holds subscription '%s' below its minimum level (%d < %d)", label, subID, level, sub.MinLevel))
		}
	}

	for _, item := range p {
		t, ok := c.Catalog.Tariff(item.TariffID)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s item '%s' references unknown tariff '%s' - it will be skipped", label, item.ID, item.TariffID))
			continue
		}
		if !resolver.IsAccessible(t, level, subID) {
			warnings = append(warnings, fmt.Sprintf("%s item '%s' is on tariff '%s' which the account cannot access", label, item.ID, t.ID))
		}
		if !(item.Amount == 0 && t.IsProgram()) && !t.AcceptsAmount(item.Amount) {
			warnings = append(warnings, fmt.Sprintf("%s item '%s' amount %.2f is outside tariff '%s' bounds", label, item.ID, item.Amount, t.ID))
		}
	}

	for _, t := range c.Catalog.Tariffs {
		if !t.Limited || t.CapacitySlots == nil {
			continue
		}
		if n := p.CountByTariff(t.ID); n > *t.CapacitySlots {
			warnings = append(warnings, fmt.Sprintf("%s exceeds capacity of tariff '%s' (%d > %d slots)", label, t.ID, n, *t.CapacitySlots))
		}
	}

	counts := make(map[string]int)
	for _, id := range boosterIDs {
		b, ok := c.Catalog.Booster(id)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s selects unknown booster '%s' - it will be skipped", label, id))
			continue
		}
		counts[id]++
		if counts[id] == b.Limit()+1 {
			warnings = append(warnings, fmt.Sprintf("%s selects booster '%s' more than %d times", label, id, b.Limit()))
		}
		if counts[id] == 1 && !resolver.IsBoosterAccessible(b, level, subID) {
			warnings = append(warnings, fmt.Sprintf("%s selects booster '%s' which the account cannot access", label, id))
		}
	}

	return warnings
}
