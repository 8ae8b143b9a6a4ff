// Package output provides utilities for formatting and displaying planner results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/yield-planner/internal/engine"
	"github.com/iwvelando/yield-planner/internal/impact"
	"github.com/iwvelando/yield-planner/internal/reserve"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Render writes the result in the given format.
func Render(w io.Writer, format string, result engine.Result) error {
	switch format {
	case constants.OutputFormatCSV:
		return WriteCSV(w, result)
	case constants.OutputFormatJSON:
		return WriteJSON(w, result)
	default:
		return WritePretty(w, result)
	}
}

// WritePretty writes a human-readable report.
func WritePretty(w io.Writer, result engine.Result) error {
	p := message.NewPrinter(language.English)
	pf := result.Portfolio
	ew := &errWriter{w: w, p: p}

	ew.printf("--- Portfolio (subscription %s, fee %.2f%%) ---\n", subscriptionLabel(pf), pf.FeeRate*constants.PercentageMultiplier)
	ew.printf("Item | Tariff | Amount | Days | Multiplier | Gross | Fee | Boosters | Subscription | Net final\n")
	ew.printf("____ | ______ | ______ | ____ | __________ | _____ | ___ | ________ | ____________ | _________\n")
	for _, row := range pf.Rows {
		ew.printf("%s | %s | $%.2f | %d | x%.4f | $%.2f | $%.2f | $%.2f | $%.2f | $%.2f\n",
			row.ItemID, row.TariffName, row.Amount, row.DurationDays, row.Multiplier,
			row.GrossBoosted, row.FeeBoosted, row.BoosterAllocation, row.SubscriptionAllocation, row.NetFinal)
		if row.BreakEvenDeposit != nil {
			ew.printf("    break-even deposit $%.2f (entry fee $%.2f)\n", *row.BreakEvenDeposit, row.ProgramFee)
		}
	}
	t := pf.Totals
	ew.printf("Deposits $%.2f | Gross $%.2f | Fees $%.2f | Entry fees $%.2f | Boosters $%.2f | Subscription $%.2f\n",
		t.Deposits, t.GrossBoosted, t.FeeBoosted, t.ProgramFees, t.AppliedBoosterCost, t.SubscriptionPrice)
	ew.printf("Net without boosters $%.2f | Net after boosters $%.2f | Net final $%.2f | Booster lift $%.2f\n",
		t.NetNoBoost, t.NetAfterBoosters, t.NetFinal, t.BoosterLift)
	ew.printf("Project revenue $%.2f\n", t.ProjectRevenue)
	for _, id := range pf.SkippedItems {
		ew.printf("Skipped item %s: tariff no longer exists\n", id)
	}

	if len(pf.AvailableTariffs) > 0 {
		ew.printf("\n--- Available tariffs ---\n")
		for _, tariff := range pf.AvailableTariffs {
			ew.printf("%s | %s | %d days | %.2f%%/day | min $%.2f\n",
				tariff.ID, tariff.Category, tariff.DurationDays, tariff.DailyRate*constants.PercentageMultiplier, tariff.BaseMin)
		}
	}

	if len(pf.Quotes) > 0 {
		ew.printf("\n--- Booster prices ---\n")
		for _, q := range pf.Quotes {
			kind := "list"
			if q.Dynamic {
				kind = "dynamic"
			}
			ew.printf("%s | $%.2f (%s, list $%.2f) | baseline gain $%.2f | portfolio gain $%.2f\n",
				q.Booster.ID, q.Booster.Price, kind, q.ListPrice, q.BaselineGain, q.PortfolioGain)
		}
	}

	ew.printf("\n--- 30-day projection (%s) ---\n", pf.Reinvest)
	for _, o := range pf.Projections {
		marker := ""
		if o.Current {
			marker = " (current)"
		}
		ew.printf("%s%s | no-reinvest $%.2f | auto-roll $%.2f\n", o.SubscriptionID, marker, o.NoReinvest, o.AutoRoll)
	}
	if pf.Recommendation != nil {
		ew.printf("Recommended: %s ($%.2f vs $%.2f)\n",
			pf.Recommendation.SubscriptionID, pf.Recommendation.Value(pf.Reinvest), pf.Projection)
	}

	if len(result.Impacts) > 0 {
		ew.printf("\n--- Booster impact ---\n")
		for _, im := range result.Impacts {
			ew.printf("%s | gain $%.2f | after cost $%.2f | ROI %s | payback %s | coverage %.1f%%\n",
				im.BoosterID, im.NetGain, im.NetAfterCost, roiLabel(im), paybackLabel(im),
				im.CoverageShare*constants.PercentageMultiplier)
		}
	}

	if result.Reserve != nil {
		writeReservePretty(ew, *result.Reserve)
	}
	return ew.err
}

func writeReservePretty(ew *errWriter, r reserve.Result) {
	ew.printf("\n--- Reserve survival (%d investors) ---\n", r.Investors)
	ew.printf("Start $%.2f | After fees $%.2f | Horizon %d days | Minimum $%.2f\n",
		r.StartReserve, r.ReserveAfterFees, r.Horizon, r.MinReserve)
	if r.CollapseDay != nil {
		ew.printf("Reserve collapses on day %d\n", *r.CollapseDay)
	} else {
		ew.printf("Reserve survives the horizon\n")
	}
	for _, s := range r.Segments {
		ew.printf("%s | %d investors | deposits $%.2f | revenue $%.2f | payout $%.2f/day\n",
			s.Name, s.Investors, s.Deposits, s.ProjectRevenue, s.DailyPayout)
	}
	ew.printf("Day | Reserve\n")
	for _, pt := range r.Timeline {
		ew.printf("%d | $%.2f\n", pt.Day, pt.Reserve)
	}
}

var csvHeader = []string{
	"item", "tariff", "category", "amount", "durationDays", "multiplier",
	"dailyGrossBoosted", "grossBoosted", "feeBoosted", "programFee", "netNoBoost",
	"boosterAllocation", "subscriptionAllocation", "netAfterBoosters", "netFinal",
	"boosterLift", "breakEvenDeposit",
}

// WriteCSV writes one line per deposit plus a totals line. When the result
// carries a reserve simulation its timeline follows after a blank line.
func WriteCSV(w io.Writer, result engine.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range result.Portfolio.Rows {
		breakEven := ""
		if row.BreakEvenDeposit != nil {
			breakEven = money(*row.BreakEvenDeposit)
		}
		record := []string{
			row.ItemID, row.TariffID, string(row.Category), money(row.Amount),
			strconv.Itoa(row.DurationDays), strconv.FormatFloat(row.Multiplier, 'f', 6, 64),
			money(row.DailyGrossBoosted), money(row.GrossBoosted), money(row.FeeBoosted),
			money(row.ProgramFee), money(row.NetNoBoost), money(row.BoosterAllocation),
			money(row.SubscriptionAllocation), money(row.NetAfterBoosters), money(row.NetFinal),
			money(row.BoosterLift), breakEven,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	t := result.Portfolio.Totals
	totals := []string{
		"total", "", "", money(t.Deposits), "", "",
		"", money(t.GrossBoosted), money(t.FeeBoosted),
		money(t.ProgramFees), money(t.NetNoBoost), money(t.BoosterAllocation),
		money(t.SubscriptionAllocation), money(t.NetAfterBoosters), money(t.NetFinal),
		money(t.BoosterLift), "",
	}
	if err := cw.Write(totals); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if result.Reserve != nil {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		return WriteReserveCSV(w, *result.Reserve)
	}
	return nil
}

// WriteReserveCSV writes the reserve timeline as day,reserve lines.
func WriteReserveCSV(w io.Writer, r reserve.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "reserve"}); err != nil {
		return err
	}
	for _, pt := range r.Timeline {
		if err := cw.Write([]string{strconv.Itoa(pt.Day), money(pt.Reserve)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, result engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func subscriptionLabel(pf engine.PortfolioResult) string {
	if pf.Subscription.Name != "" {
		return pf.Subscription.Name
	}
	if pf.SubscriptionID != "" {
		return pf.SubscriptionID
	}
	return "none"
}

func roiLabel(im impact.Result) string {
	if im.ROI == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *im.ROI*constants.PercentageMultiplier)
}

func paybackLabel(im impact.Result) string {
	if im.PaybackHours == nil {
		return "never"
	}
	return fmt.Sprintf("%.1fh", *im.PaybackHours)
}

// errWriter keeps the first write error so the report can be written without
// checking every line.
type errWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = ew.p.Fprintf(ew.w, format, args...)
}
