package catalog

import "sort"

// SortTariffs returns the tariffs in display order: plans before programs,
// level-gated before open, then ascending minimum level and daily rate.
func SortTariffs(tariffs []Tariff) []Tariff {
	sorted := append([]Tariff(nil), tariffs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsProgram() != b.IsProgram() {
			return !a.IsProgram()
		}
		aOpen, bOpen := a.Access == AccessOpen, b.Access == AccessOpen
		if aOpen != bOpen {
			return !aOpen
		}
		if a.MinLevel != b.MinLevel {
			return a.MinLevel < b.MinLevel
		}
		return a.DailyRate < b.DailyRate
	})
	return sorted
}
