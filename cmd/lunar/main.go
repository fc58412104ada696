// Command lunar converts Gregorian dates to the Vietnamese lunisolar
// calendar from the command line.
//
// Usage:
//
//	go run ./cmd/lunar                                  # today, Asia/Ho_Chi_Minh
//	go run ./cmd/lunar -date 2026-05-05 -days 7
//	go run ./cmd/lunar -date 2025-07-25 -zone Asia/Shanghai -json
//	go run ./cmd/lunar -terms 2026
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/engine"
	"github.com/zapponejosh/amlich-api/internal/ephemeris"
	"github.com/zapponejosh/amlich-api/internal/logger"
)

type options struct {
	date     string
	days     int
	zone     string
	terms    int
	solar    string
	deltaT   string
	file     string
	asJSON   bool
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.date, "date", "", "Gregorian date YYYY-MM-DD (default today in -zone)")
	flag.IntVar(&opts.days, "days", 1, "Number of consecutive days to convert")
	flag.StringVar(&opts.zone, "zone", "Asia/Ho_Chi_Minh", "IANA time zone of the civil day")
	flag.IntVar(&opts.terms, "terms", 0, "List the solar terms of this Gregorian year instead")
	flag.StringVar(&opts.solar, "solar", engine.SolarVSOP87, "Solar calculator")
	flag.StringVar(&opts.deltaT, "delta-t", engine.DeltaTEspenakMeeus, "ΔT estimator")
	flag.StringVar(&opts.file, "coefficients", "", "VSOP87D Earth table (default embedded)")
	flag.BoolVar(&opts.asJSON, "json", false, "Print JSON")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	flag.Parse()

	log := logger.New(os.Stderr, opts.logLevel, "text")
	slog.SetDefault(log)

	if err := run(opts, os.Stdout, log); err != nil {
		log.Error("conversion failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(opts options, out io.Writer, log *slog.Logger) error {
	if opts.days < 1 {
		return fmt.Errorf("-days must be at least 1")
	}
	loc, err := time.LoadLocation(opts.zone)
	if err != nil {
		return fmt.Errorf("load zone: %w", err)
	}

	terms, err := ephemeris.Embedded()
	if opts.file != "" {
		terms, err = ephemeris.LoadFile(opts.file)
	}
	if err != nil {
		return err
	}

	eng, err := engine.Build(engine.DefaultRegistry(), engine.Selection{
		Solar:    opts.solar,
		DeltaT:   opts.deltaT,
		Calendar: calendar.DefaultID,
	}, &terms, calendar.WithLogger(log))
	if err != nil {
		return err
	}

	if opts.terms != 0 {
		return printTerms(out, calendar.YearSolarTerms(eng.SolarTime, opts.terms), loc, opts.asJSON)
	}

	start := time.Now().In(loc)
	if opts.date != "" {
		start, err = time.Parse(time.DateOnly, opts.date)
		if err != nil {
			return fmt.Errorf("invalid -date %q, use YYYY-MM-DD", opts.date)
		}
	}

	days := make([]calendar.LunisolarDate, 0, opts.days)
	for i := 0; i < opts.days; i++ {
		day, err := eng.Calendar.GetDate(start.AddDate(0, 0, i), loc)
		if err != nil {
			return err
		}
		days = append(days, day)
	}

	if opts.asJSON {
		return writeJSON(out, days)
	}
	for _, day := range days {
		printDay(out, day, loc)
	}
	return nil
}

func printDay(out io.Writer, day calendar.LunisolarDate, loc *time.Location) {
	s := day.Sexagenary
	fmt.Fprintf(out, "%s  lunar %s  %s", day.SolarDate.Format(time.DateOnly), day.LunarDate, day.DailySolarTerm.Term)
	if tr := day.DailySolarTerm.Transition; tr != nil {
		fmt.Fprintf(out, " (begins %s)", tr.In(loc).Format("15:04"))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "    year %s, month %s, day %s, hour %s\n", s.Year, s.Month, s.Day, s.Hour)

	hours := make([]string, 0, len(day.AuspiciousHours))
	for _, h := range day.AuspiciousHours {
		hours = append(hours, fmt.Sprintf("%s %s", h.Branch, h))
	}
	fmt.Fprintf(out, "    auspicious: %s\n", strings.Join(hours, ", "))
	if len(day.HolidayIDs) > 0 {
		fmt.Fprintf(out, "    holidays: %s\n", strings.Join(day.HolidayIDs, ", "))
	}
}

func printTerms(out io.Writer, transitions []calendar.TermTransition, loc *time.Location, asJSON bool) error {
	if asJSON {
		return writeJSON(out, transitions)
	}
	for _, tr := range transitions {
		fmt.Fprintf(out, "%-22s %3d°  %s\n", tr.Term, tr.Term.Longitude(), tr.At.In(loc).Format("2006-01-02 15:04 MST"))
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
