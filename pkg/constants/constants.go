// Package constants provides shared constants for the yield-planner application.
package constants

// Financial constants
const (
	// HoursPerDay converts tariff durations into booster coverage windows.
	HoursPerDay = 24

	// ProjectionDays is the length of one subscription cycle and of the
	// forward projection window.
	ProjectionDays = 30

	// ReserveHorizonPadding is added to the longest plan duration to form the
	// reserve simulation horizon.
	ReserveHorizonPadding = 30

	// BaselineTariffCount is the number of cheapest eligible tariffs used as
	// the dynamic pricing reference portfolio.
	BaselineTariffCount = 3

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Catalog normalization defaults applied to malformed or missing fields.
const (
	DefaultTariffDurationDays   = 7
	// MaxTariffDurationDays caps tariff durations so projections and reserve
	// timelines stay bounded.
	MaxTariffDurationDays       = 3650
	DefaultTariffDailyRate      = 0.005
	DefaultTariffBaseMin        = 0.0
	DefaultTariffBaseMax        = 0.0
	DefaultBoosterDurationHours = 24
	DefaultBoosterLimit         = 1
	DefaultBoosterEffectKind    = "mult"
	DefaultReinvestMode         = "no-reinvest"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
