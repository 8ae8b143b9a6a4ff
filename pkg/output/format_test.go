package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/engine"
	"github.com/iwvelando/yield-planner/internal/projection"
)

func testResult(t *testing.T, withSegments bool) engine.Result {
	t.Helper()
	s := engine.State{
		Catalog: catalog.Catalog{
			Subscriptions: []catalog.Subscription{
				{ID: "free", Name: "Free", FeeRate: 0.2},
				{ID: "plus", Name: "Plus", FeeRate: 0.1, Price: 5},
			},
			Tariffs: []catalog.Tariff{
				{ID: "ten", Name: "Ten days", DurationDays: 10, DailyRate: 0.01, BaseMin: 100},
				{ID: "academy", Name: "Academy", DurationDays: 20, DailyRate: 0.01, Category: catalog.CategoryProgram, EntryFee: 10},
			},
			Boosters: []catalog.Booster{
				{ID: "x2", Effect: catalog.Effect{Kind: catalog.EffectMultiplier, Value: 1}, DurationHours: 24, Price: 2, Scope: catalog.ScopeTariff},
			},
			PricingControls: catalog.DefaultPricingControls(),
		},
		SubscriptionID: "free",
		Portfolio: catalog.Portfolio{
			{ID: "d1", TariffID: "ten", Amount: 1000},
			{ID: "d2", TariffID: "academy", Amount: 0},
		},
		BoosterIDs: []string{"x2"},
		Reinvest:   projection.NoReinvest,
	}
	if withSegments {
		s.Segments = []catalog.InvestorSegment{
			{Name: "retail", InvestorsCount: 3, SubscriptionID: "free", Portfolio: catalog.Portfolio{{ID: "r", TariffID: "ten", Amount: 100}}},
		}
	}
	return engine.NewEngine(nil).Compute(s)
}

func TestWritePretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePretty(&buf, testResult(t, true)); err != nil {
		t.Fatalf("WritePretty() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Portfolio (subscription Free, fee 20.00%) ---",
		"Item | Tariff | Amount | Days | Multiplier | Gross | Fee | Boosters | Subscription | Net final",
		"d1 | Ten days | $1,000.00 | 10 |",
		"break-even deposit $62.50 (entry fee $10.00)",
		"--- Booster prices ---",
		"--- 30-day projection (no-reinvest) ---",
		"free (current)",
		"--- Booster impact ---",
		"--- Reserve survival (3 investors) ---",
		"Reserve collapses on day 10",
		"retail | 3 investors",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("WritePretty output missing %q\n%s", want, output)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testResult(t, false)); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header, 2 rows and totals, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "d1" || records[1][3] != "1000.00" || records[1][5] != "1.100000" {
		t.Errorf("row = %v", records[1])
	}
	if records[2][9] != "10.00" || records[2][16] != "62.50" {
		t.Errorf("program row = %v", records[2])
	}
	if records[3][0] != "total" || records[3][3] != "1000.00" {
		t.Errorf("totals = %v", records[3])
	}
}

func TestWriteCSVWithReserve(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testResult(t, true)); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	sections := strings.SplitN(buf.String(), "\n\n", 2)
	if len(sections) != 2 {
		t.Fatalf("expected a reserve section after a blank line, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(sections[1], "day,reserve\n0,") {
		t.Errorf("reserve section = %q", sections[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testResult(t, true)); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	portfolio, ok := decoded["portfolio"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing portfolio object")
	}
	if _, ok := portfolio["totals"]; !ok {
		t.Errorf("embedded portfolio state should be flattened into portfolio")
	}
	if _, ok := decoded["reserve"]; !ok {
		t.Errorf("missing reserve object")
	}
}

func TestRender(t *testing.T) {
	result := testResult(t, false)
	tests := []struct {
		format string
		prefix string
	}{
		{"pretty", "--- Portfolio"},
		{"csv", "item,tariff"},
		{"json", "{"},
		{"unknown", "--- Portfolio"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, tt.format, result); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("Render(%s) starts with %q, want %q", tt.format, buf.String()[:20], tt.prefix)
			}
		})
	}
}
