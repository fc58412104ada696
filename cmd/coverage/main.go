// Command coverage converts every day of a range of years and checks that
// consecutive results form a continuous lunisolar calendar.
//
// Usage:
//
//	go run ./cmd/coverage -start 1900 -years 300 -zone Asia/Ho_Chi_Minh -o coverage.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/engine"
	"github.com/zapponejosh/amlich-api/internal/ephemeris"
)

// DayResult holds the result for a single date
type DayResult struct {
	Date      string `json:"date"`
	Success   bool   `json:"success"`
	Lunar     string `json:"lunar,omitempty"`
	SolarTerm string `json:"solar_term,omitempty"`
	Error     string `json:"error,omitempty"`
}

// YearStats tracks statistics for each Gregorian year
type YearStats struct {
	Year        int      `json:"year"`
	TotalDays   int      `json:"total_days"`
	FailedDays  int      `json:"failed_days"`
	LeapMonths  []string `json:"leap_months"`
	FailedDates []string `json:"failed_dates,omitempty"`
}

// Analysis summarizes a sweep.
type Analysis struct {
	TotalDays   int          `json:"total_days"`
	TotalFailed int          `json:"total_failed"`
	Years       []*YearStats `json:"years"`
	Failures    []DayResult  `json:"failures,omitempty"`
}

func main() {
	startYear := flag.Int("start", 1700, "Start year")
	years := flag.Int("years", 501, "Number of years to check")
	zone := flag.String("zone", "Asia/Ho_Chi_Minh", "IANA time zone of the civil day")
	solar := flag.String("solar", engine.SolarVSOP87, "Solar calculator")
	verbose := flag.Bool("v", false, "Verbose output (show each date)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	endYear := *startYear + *years - 1

	loc, err := time.LoadLocation(*zone)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	terms, err := ephemeris.Embedded()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	sel := engine.DefaultSelection()
	sel.Solar = *solar
	eng, err := engine.Build(engine.DefaultRegistry(), sel, &terms)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("================================================================")
	fmt.Println("Âm lịch - Full Coverage Check")
	fmt.Println("================================================================")
	fmt.Printf("Calendar:    %s (%s)\n", eng.Calendar.ID(), *solar)
	fmt.Printf("Zone:        %s\n", loc)
	fmt.Printf("Date Range:  %d-01-01 to %d-12-31\n", *startYear, endYear)
	fmt.Printf("Total Years: %d\n", *years)
	fmt.Println()

	analysis := sweep(eng.Calendar, loc, *startYear, endYear, *verbose)

	printSummary(analysis)
	printAllFailures(analysis)

	if *outputFile != "" {
		saveResults(*outputFile, analysis)
	}

	// Exit with error code if there were failures
	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

func sweep(cal calendar.Calendar, loc *time.Location, startYear, endYear int, verbose bool) *Analysis {
	start := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, 12, 31, 0, 0, 0, 0, time.UTC)
	totalDays := int(end.Sub(start).Hours()/24) + 1

	fmt.Printf("Checking %d days...\n\n", totalDays)

	analysis := &Analysis{}
	byYear := make(map[int]*YearStats)
	lastProgress := -1

	var prev *calendar.LunisolarDate
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		stats := byYear[current.Year()]
		if stats == nil {
			stats = &YearStats{Year: current.Year(), LeapMonths: []string{}}
			byYear[current.Year()] = stats
		}
		stats.TotalDays++
		analysis.TotalDays++

		result := DayResult{Date: current.Format(time.DateOnly)}
		day, err := cal.GetDate(current, loc)
		if err != nil {
			result.Error = err.Error()
			prev = nil
		} else {
			result.Lunar = day.LunarDate.String()
			result.SolarTerm = day.DailySolarTerm.Term.String()
			result.Error = checkSuccessor(prev, day)
			result.Success = result.Error == ""
			if day.LunarDate.Month.Leap && day.LunarDate.Day == 1 {
				stats.LeapMonths = append(stats.LeapMonths, result.Lunar)
			}
			prev = &day
		}

		if !result.Success {
			stats.FailedDays++
			stats.FailedDates = append(stats.FailedDates, result.Date)
			analysis.TotalFailed++
			analysis.Failures = append(analysis.Failures, result)
		}

		// Show progress
		progress := (analysis.TotalDays * 100) / totalDays
		if progress != lastProgress && progress%5 == 0 {
			fmt.Printf("  Progress: %d%% (%d/%d) - Failures: %d\n", progress, analysis.TotalDays, totalDays, analysis.TotalFailed)
			lastProgress = progress
		}

		if verbose {
			status := "✓"
			if !result.Success {
				status = "✗"
			}
			fmt.Printf("  %s %s: %s %s\n", status, result.Date, result.Lunar, result.SolarTerm)
			if !result.Success {
				fmt.Printf("      Error: %s\n", result.Error)
			}
		}
	}

	for _, stats := range byYear {
		analysis.Years = append(analysis.Years, stats)
	}
	sort.Slice(analysis.Years, func(i, j int) bool {
		return analysis.Years[i].Year < analysis.Years[j].Year
	})

	fmt.Println()
	return analysis
}

// checkSuccessor returns a description of what is wrong with cur following
// prev, or "" when the pair is continuous. A nil prev is always accepted.
func checkSuccessor(prev *calendar.LunisolarDate, cur calendar.LunisolarDate) string {
	if prev == nil {
		return ""
	}
	p, c := prev.LunarDate, cur.LunarDate

	switch {
	case c.Year == p.Year && c.Month == p.Month:
		if c.Day != p.Day+1 {
			return fmt.Sprintf("day %s follows %s", c, p)
		}
	case c.Day != 1:
		return fmt.Sprintf("month changed mid-month: %s follows %s", c, p)
	case p.Day != 29 && p.Day != 30:
		return fmt.Sprintf("month of %d days ended at %s", p.Day, p)
	case c.Year == p.Year:
		if c.Month.Compare(p.Month) <= 0 {
			return fmt.Sprintf("month went backwards: %s follows %s", c, p)
		}
		if c.Month.Value != p.Month.Value && c.Month.Value != p.Month.Value+1 {
			return fmt.Sprintf("month skipped: %s follows %s", c, p)
		}
		if c.Month.Leap && c.Month.Value != p.Month.Value {
			return fmt.Sprintf("leap month %s does not repeat %s", c, p)
		}
	case c.Year == p.Year+1:
		if c.Month.Value != 1 || c.Month.Leap || p.Month.Value != 12 {
			return fmt.Sprintf("new year starts at %s after %s", c, p)
		}
	default:
		return fmt.Sprintf("year jumped: %s follows %s", c, p)
	}

	pt, ct := prev.DailySolarTerm.Term, cur.DailySolarTerm.Term
	if ct != pt && ct != pt.Next() {
		return fmt.Sprintf("solar term %s follows %s", ct, pt)
	}
	if (ct != pt) != (cur.DailySolarTerm.Transition != nil) {
		return fmt.Sprintf("solar term %s changed without a matching transition", ct)
	}
	return ""
}

func printSummary(a *Analysis) {
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Total days checked:  %d\n", a.TotalDays)
	fmt.Printf("Failures:            %d\n", a.TotalFailed)
	fmt.Println()

	fmt.Printf("%-6s %-6s %-8s %s\n", "Year", "Days", "Failed", "Leap months")
	for _, y := range a.Years {
		fmt.Printf("%-6d %-6d %-8d %v\n", y.Year, y.TotalDays, y.FailedDays, y.LeapMonths)
	}
	fmt.Println()
}

func printAllFailures(a *Analysis) {
	if len(a.Failures) == 0 {
		fmt.Println("All days continuous! ✓")
		return
	}

	fmt.Println("================================================================")
	fmt.Println("FAILURES")
	fmt.Println("================================================================")
	for _, f := range a.Failures {
		fmt.Printf("  %s: %s\n", f.Date, f.Error)
	}
	fmt.Println()
}

func saveResults(path string, a *Analysis) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Printf("Error writing results: %v\n", err)
		return
	}
	fmt.Printf("Results saved to %s\n", path)
}
