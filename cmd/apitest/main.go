// Command apitest runs smoke checks against a running amlich API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -v
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// DayResponse is the response for /lunar/date/{date} and /lunar/today
type DayResponse struct {
	Date      string `json:"date"`
	Zone      string `json:"zone"`
	LunarText string `json:"lunar_text"`
	SolarTerm struct {
		Term       string  `json:"term"`
		Transition *string `json:"transition,omitempty"`
	} `json:"solar_term"`
	Sexagenary map[string]struct {
		Stem   string `json:"stem"`
		Branch string `json:"branch"`
	} `json:"sexagenary"`
	HolidayIDs []string `json:"holiday_ids"`
}

// RangeResponse is the response for /lunar/range
type RangeResponse struct {
	Start string        `json:"start"`
	End   string        `json:"end"`
	Days  []DayResponse `json:"days"`
}

// FrameResponse is the response for /year-frames/{year}
type FrameResponse struct {
	AnchorYear     int  `json:"anchor_year"`
	Lunations      int  `json:"lunations"`
	HasLeapMonth   bool `json:"has_leap_month"`
	LeapMonthIndex int  `json:"leap_month_index"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status       string `json:"status"`
	Calendar     string `json:"calendar"`
	Solar        string `json:"solar"`
	CachedFrames int    `json:"cached_frames"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Âm lịch API Test Suite")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	// Run test groups
	tr.testHealth()
	tr.testToday()
	tr.testSpecificDates()
	tr.testDateRange()
	tr.testYearFrames()
	tr.testEdgeCases()

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess(fmt.Sprintf("Health check passed (%s, %s, %d cached frames)",
			health.Calendar, health.Solar, health.CachedFrames))
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testToday() {
	tr.printSection("Today")

	for _, zone := range []string{"", "America/New_York", "Asia/Shanghai"} {
		path := "/api/v1/lunar/today"
		if zone != "" {
			path += "?zone=" + zone
		}

		var day DayResponse
		if err := tr.getData(path, &day); err != nil {
			tr.recordError("Today "+zone, err.Error())
			continue
		}
		tr.recordSuccess(fmt.Sprintf("Today in %s: %s is lunar %s", day.Zone, day.Date, day.LunarText))
		tr.printDayDetail(&day)
	}
}

func (tr *TestRunner) testSpecificDates() {
	tr.printSection("Specific Date Tests (Asia/Ho_Chi_Minh)")

	testCases := []struct {
		date        string
		lunar       string
		description string
	}{
		// Tết
		{"2024-02-10", "2024-01-01", "Tết Giáp Thìn"},
		{"2025-01-29", "2025-01-01", "Tết Ất Tỵ"},
		{"2026-02-17", "2026-01-01", "Tết Bính Ngọ"},

		// Leap months
		{"2020-05-23", "2020-04L-01", "Leap month 4 of 2020"},
		{"2023-03-22", "2023-02L-01", "Leap month 2 of 2023"},
		{"2025-07-25", "2025-06L-01", "Leap month 6 of 2025"},
		{"2025-08-23", "2025-07-01", "Month after the 2025 leap month"},

		// Solar term day
		{"2026-05-05", "2026-03-19", "START_OF_SUMMER begins"},
	}

	for _, tc := range testCases {
		var day DayResponse
		if err := tr.getData("/api/v1/lunar/date/"+tc.date, &day); err != nil {
			tr.recordError(tc.date, err.Error())
			continue
		}

		if day.LunarText == tc.lunar {
			tr.recordSuccess(fmt.Sprintf("%s: %s (%s)", tc.date, day.LunarText, tc.description))
		} else {
			tr.recordError(tc.date, fmt.Sprintf("Expected lunar '%s', got '%s'", tc.lunar, day.LunarText))
		}

		if tr.verbose {
			tr.printDayDetail(&day)
		}
	}
}

func (tr *TestRunner) testDateRange() {
	tr.printSection("Date Range Tests")

	// Test a week range
	var rangeData RangeResponse
	if err := tr.getData("/api/v1/lunar/range?start=2026-02-14&end=2026-02-20", &rangeData); err != nil {
		tr.recordError("Range (week)", err.Error())
	} else if len(rangeData.Days) == 7 {
		tr.recordSuccess(fmt.Sprintf("Week range returned %d days", len(rangeData.Days)))
	} else {
		tr.recordError("Range (week)", fmt.Sprintf("Expected 7 days, got %d", len(rangeData.Days)))
	}

	// Test range limit (should reject > 90 days)
	tr.expectStatus("Range limit enforced (>90 days rejected)",
		"/api/v1/lunar/range?start=2025-01-01&end=2025-12-31", http.StatusBadRequest)

	// Test invalid range (end before start)
	tr.expectStatus("Invalid range rejected (end before start)",
		"/api/v1/lunar/range?start=2025-12-31&end=2025-01-01", http.StatusBadRequest)
}

func (tr *TestRunner) testYearFrames() {
	tr.printSection("Year Frames")

	testCases := []struct {
		year      int
		leapIndex int // -1 for none
	}{
		{2019, 6},
		{2020, -1},
		{2022, 4},
		{2023, -1},
		{2024, 8},
	}

	for _, tc := range testCases {
		var frame FrameResponse
		if err := tr.getData(fmt.Sprintf("/api/v1/year-frames/%d", tc.year), &frame); err != nil {
			tr.recordError(fmt.Sprint(tc.year), err.Error())
			continue
		}

		got := -1
		if frame.HasLeapMonth {
			got = frame.LeapMonthIndex
		}
		if got == tc.leapIndex {
			tr.recordSuccess(fmt.Sprintf("Frame %d: %d lunations, leap index %d", tc.year, frame.Lunations, got))
		} else {
			tr.recordError(fmt.Sprint(tc.year), fmt.Sprintf("Expected leap index %d, got %d", tc.leapIndex, got))
		}
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	tr.expectStatus("Invalid date format rejected", "/api/v1/lunar/date/invalid", http.StatusBadRequest)
	tr.expectStatus("Impossible date rejected", "/api/v1/lunar/date/2025-02-29", http.StatusBadRequest)
	tr.expectStatus("Unknown zone rejected", "/api/v1/lunar/date/2025-01-01?zone=Mars/Olympus", http.StatusBadRequest)
	tr.expectStatus("Unknown calendar rejected", "/api/v1/lunar/date/2025-01-01?calendar=Hebrew", http.StatusBadRequest)
	tr.expectStatus("Missing end parameter rejected", "/api/v1/lunar/range?start=2025-01-01", http.StatusBadRequest)
	tr.expectStatus("Admin route requires a key", "/api/v1/admin/coefficients", http.StatusUnauthorized)

	// Leap year date
	var day DayResponse
	if err := tr.getData("/api/v1/lunar/date/2024-02-29", &day); err != nil {
		tr.recordError("Leap year", err.Error())
	} else {
		tr.recordSuccess(fmt.Sprintf("Leap year date (2024-02-29) is lunar %s", day.LunarText))
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) getData(path string, target any) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, errMsg)
	}

	return json.Unmarshal(apiResp.Data, target)
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	return tr.client.Get(tr.baseURL + path)
}

func (tr *TestRunner) expectStatus(name, path string, status int) {
	resp, err := tr.getRaw(path)
	if err != nil {
		tr.recordError(name, err.Error())
		return
	}
	resp.Body.Close()

	if resp.StatusCode == status {
		tr.recordSuccess(name)
	} else {
		tr.recordError(name, fmt.Sprintf("Expected HTTP %d, got %d", status, resp.StatusCode))
	}
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) printDayDetail(d *DayResponse) {
	if d == nil {
		return
	}
	fmt.Printf("    Solar term: %s", d.SolarTerm.Term)
	if d.SolarTerm.Transition != nil {
		fmt.Printf(" (begins %s)", *d.SolarTerm.Transition)
	}
	fmt.Println()
	for _, pillar := range []string{"year", "month", "day", "hour"} {
		c := d.Sexagenary[pillar]
		fmt.Printf("    %-5s %s %s\n", pillar, c.Stem, c.Branch)
	}
	if len(d.HolidayIDs) > 0 {
		fmt.Printf("    Holidays: %v\n", d.HolidayIDs)
	}
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
	}

	if tr.errorCount == 0 {
		fmt.Println("All tests passed! ✓")
	} else {
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output (show day details)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
