// Package newsletter renders quarterly index reports and delivers them
// through ConvertKit.
package newsletter

import "time"

// Holding is one constituent as presented in a report.
type Holding struct {
	Ticker          string
	Name            string
	Weight          float64
	Rank            int
	SpaceRevenuePct float64
	Segments        []string
}

// Changes lists the composition deltas since the previous rebalance.
type Changes struct {
	Added   []Holding
	Removed []Holding
}

// ReportData is everything one quarterly report needs.
type ReportData struct {
	IndexName     string
	Quarter       string // e.g. "Q3 2026"
	RebalanceDate time.Time
	Holdings      []Holding
	Changes       Changes
	IndexValue    float64
	QuarterReturn float64 // percent
}

// QuarterOf formats the calendar quarter label for a date.
func QuarterOf(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return formatQuarter(q, t.Year())
}
