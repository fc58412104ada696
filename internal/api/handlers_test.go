package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/config"
	"github.com/zapponejosh/amlich-api/internal/database"
	"github.com/zapponejosh/amlich-api/internal/engine"
	"github.com/zapponejosh/amlich-api/internal/ephemeris"
	"github.com/zapponejosh/amlich-api/internal/metrics"
	"github.com/zapponejosh/amlich-api/internal/warmup"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

// testEnv sets up a complete test environment with engine, database and router
type testEnv struct {
	db       *database.DB
	cfg      *config.Config
	metrics  *metrics.Metrics
	handlers *Handlers
	router   http.Handler
	adminKey string
}

// fixedNow is 10:00 in Ho Chi Minh City on 2026-05-05.
var fixedNow = time.Date(2026, time.May, 5, 3, 0, 0, 0, time.UTC)

// setupTest creates a fresh test environment
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	// Create in-memory database
	db, err := database.Open(database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	terms, err := ephemeris.Embedded()
	if err != nil {
		t.Fatalf("load embedded terms: %v", err)
	}
	if _, err := db.ReplacePeriodicTerms(ctx, database.DefaultTableName, "embedded", terms); err != nil {
		t.Fatalf("store terms: %v", err)
	}

	adminKey := "admin-test-key-32-characters-minimum-length"
	cfg := &config.Config{
		Port:               8080,
		Env:                config.EnvDevelopment,
		DefaultZone:        "Asia/Ho_Chi_Minh",
		SolarCalculator:    engine.SolarVSOP87,
		DeltaT:             engine.DeltaTEspenakMeeus,
		Calendar:           calendar.DefaultID,
		CoefficientsSource: config.SourceSQLite,
		DatabasePath:       ":memory:",
		AdminAPIKey:        adminKey,
		LogLevel:           "error",
		LogFormat:          "text",
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	m := metrics.New()
	eng, err := engine.Build(engine.DefaultRegistry(), engine.DefaultSelection(), &terms,
		calendar.WithRecorder(m),
		calendar.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	converter, _ := eng.Lunisolar()

	warmer := warmup.New(converter, []*time.Location{loc}, 0,
		warmup.WithLogger(logger),
		warmup.WithObserver(m),
		warmup.WithClock(func() time.Time { return fixedNow }),
	)

	handlers, err := NewHandlers(Deps{
		Engine: eng,
		DB:     db,
		Warmer: warmer,
		Config: cfg,
		Logger: logger,
		Now:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}

	return &testEnv{
		db:       db,
		cfg:      cfg,
		metrics:  m,
		handlers: handlers,
		router:   SetupRoutes(handlers, m, cfg, logger),
		adminKey: adminKey,
	}
}

// do sends a request through the full router
func (env *testEnv) do(method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// parseResponse parses the JSON envelope, decoding data into v
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorInfo      `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("Success = false, error = %+v", envelope.Error)
	}
	if v != nil {
		if err := json.Unmarshal(envelope.Data, v); err != nil {
			t.Fatalf("decode data: %v, data: %s", err, envelope.Data)
		}
	}
}

// errorCode returns the error code of an error envelope
func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("expected error envelope, got %+v", resp)
	}
	return resp.Error.Code
}

type cycleJSON struct {
	Stem   string `json:"stem"`
	Branch string `json:"branch"`
}

type dayJSON struct {
	Date      string `json:"date"`
	Calendar  string `json:"calendar"`
	Zone      string `json:"zone"`
	LunarText string `json:"lunar_text"`
	LunarDate struct {
		Year  int `json:"year"`
		Month struct {
			Value int  `json:"value"`
			Leap  bool `json:"leap"`
		} `json:"month"`
		Day int `json:"day"`
	} `json:"lunar_date"`
	SolarTerm struct {
		Term       string     `json:"term"`
		Transition *time.Time `json:"transition"`
	} `json:"solar_term"`
	Sexagenary      map[string]cycleJSON `json:"sexagenary"`
	AuspiciousHours []struct {
		Branch string `json:"branch"`
		Start  int    `json:"start_hour"`
		End    int    `json:"end_hour"`
	} `json:"auspicious_hours"`
	HolidayIDs []string `json:"holiday_ids"`
	Sun        *struct {
		Sunrise *time.Time `json:"sunrise"`
		Sunset  *time.Time `json:"sunset"`
	} `json:"sun"`
}

// =============================================================================
// LUNAR DATE ENDPOINTS
// =============================================================================

func TestGetDate_HoChiMinh(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/lunar/date/2026-05-05", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var day dayJSON
	parseResponse(t, rr, &day)

	if day.Date != "2026-05-05" || day.Zone != "Asia/Ho_Chi_Minh" || day.Calendar != calendar.DefaultID {
		t.Errorf("header fields = %q %q %q", day.Date, day.Zone, day.Calendar)
	}
	if day.LunarDate.Year != 2026 || day.LunarDate.Month.Value != 3 || day.LunarDate.Month.Leap || day.LunarDate.Day != 19 {
		t.Errorf("LunarDate = %+v", day.LunarDate)
	}
	if day.LunarText != "2026-03-19" {
		t.Errorf("LunarText = %q", day.LunarText)
	}
	if day.SolarTerm.Term != "START_OF_SUMMER" {
		t.Errorf("SolarTerm = %q", day.SolarTerm.Term)
	}
	if day.SolarTerm.Transition == nil {
		t.Error("Transition missing")
	} else if diff := day.SolarTerm.Transition.Unix() - 1777981680; diff < -60 || diff > 60 {
		t.Errorf("Transition = %v", day.SolarTerm.Transition)
	}

	wantCycles := map[string]cycleJSON{
		"year":  {"YANG_FIRE", "HORSE"},
		"month": {"YANG_WATER", "DRAGON"},
		"day":   {"YIN_EARTH", "CAT"},
		"hour":  {"YANG_WOOD", "RAT"},
	}
	for pillar, want := range wantCycles {
		if got := day.Sexagenary[pillar]; got != want {
			t.Errorf("sexagenary %s = %+v, want %+v", pillar, got, want)
		}
	}

	if len(day.AuspiciousHours) != 6 {
		t.Errorf("AuspiciousHours = %+v", day.AuspiciousHours)
	}
	if day.HolidayIDs == nil {
		t.Error("HolidayIDs should be an empty list, not null")
	}
	if day.Sun != nil {
		t.Error("Sun present without coordinates")
	}
}

func TestGetDate_LeapMonth(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/lunar/date/2025-07-25", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var day dayJSON
	parseResponse(t, rr, &day)

	if day.LunarText != "2025-06L-01" || !day.LunarDate.Month.Leap {
		t.Errorf("LunarDate = %q %+v", day.LunarText, day.LunarDate)
	}
}

func TestGetDate_Sun(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/lunar/date/2026-05-05?lat=10.8231&lng=106.6297", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var day dayJSON
	parseResponse(t, rr, &day)

	if day.Sun == nil || day.Sun.Sunrise == nil || day.Sun.Sunset == nil {
		t.Fatalf("Sun = %+v", day.Sun)
	}
	if h := day.Sun.Sunrise.Hour(); h != 5 {
		t.Errorf("local sunrise hour = %d, want 5", h)
	}
	if h := day.Sun.Sunset.Hour(); h != 18 {
		t.Errorf("local sunset hour = %d, want 18", h)
	}
}

func TestGetDate_BadRequests(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		path string
	}{
		{"malformed date", "/api/v1/lunar/date/05-05-2026"},
		{"impossible date", "/api/v1/lunar/date/2026-02-30"},
		{"year too early", "/api/v1/lunar/date/1500-01-01"},
		{"unknown zone", "/api/v1/lunar/date/2026-05-05?zone=Asia/Atlantis"},
		{"unknown calendar", "/api/v1/lunar/date/2026-05-05?calendar=Korean"},
		{"latitude only", "/api/v1/lunar/date/2026-05-05?lat=10"},
		{"latitude out of range", "/api/v1/lunar/date/2026-05-05?lat=95&lng=100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do("GET", tt.path, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Status = %d, want 400, body: %s", rr.Code, rr.Body.String())
			}
			if code := errorCode(t, rr); code != CodeBadRequest {
				t.Errorf("Code = %q", code)
			}
		})
	}
}

func TestGetToday(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/lunar/today", "2026-05-05"},
		{"/api/v1/lunar/today?zone=America/Los_Angeles", "2026-05-04"},
	}

	for _, tt := range tests {
		rr := env.do("GET", tt.path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: Status = %d, body: %s", tt.path, rr.Code, rr.Body.String())
		}
		var day dayJSON
		parseResponse(t, rr, &day)
		if day.Date != tt.want {
			t.Errorf("%s: Date = %q, want %q", tt.path, day.Date, tt.want)
		}
	}
}

func TestGetRange(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/lunar/range?start=2025-07-24&end=2025-07-26", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var data struct {
		Zone string    `json:"zone"`
		Days []dayJSON `json:"days"`
	}
	parseResponse(t, rr, &data)

	if len(data.Days) != 3 {
		t.Fatalf("got %d days, want 3", len(data.Days))
	}
	want := []string{"2025-06-30", "2025-06L-01", "2025-06L-02"}
	for i, d := range data.Days {
		if d.LunarText != want[i] {
			t.Errorf("day %d = %q, want %q", i, d.LunarText, want[i])
		}
	}
}

func TestGetRange_Invalid(t *testing.T) {
	env := setupTest(t)

	for _, path := range []string{
		"/api/v1/lunar/range?start=2025-01-01",
		"/api/v1/lunar/range?start=2025-02-01&end=2025-01-01",
		"/api/v1/lunar/range?start=2025-01-01&end=2025-06-01",
		"/api/v1/lunar/range?start=2025-01-01&end=garbage",
	} {
		if rr := env.do("GET", path, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: Status = %d, want 400", path, rr.Code)
		}
	}
}

// =============================================================================
// SOLAR TERMS, YEAR FRAMES, CALENDARS
// =============================================================================

func TestGetSolarTerms(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/solar-terms/2026", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var data struct {
		Year  int `json:"year"`
		Terms []struct {
			Term      string `json:"term"`
			Longitude int    `json:"longitude"`
			Major     bool   `json:"major"`
			LocalDate string `json:"local_date"`
		} `json:"terms"`
	}
	parseResponse(t, rr, &data)

	if len(data.Terms) != 24 {
		t.Fatalf("got %d terms, want 24", len(data.Terms))
	}
	if data.Terms[0].Term != "MINOR_COLD" {
		t.Errorf("first term = %q, want MINOR_COLD", data.Terms[0].Term)
	}
	found := false
	for _, term := range data.Terms {
		if term.Term == "START_OF_SUMMER" {
			found = true
			if term.LocalDate != "2026-05-05" || term.Longitude != 45 || term.Major {
				t.Errorf("START_OF_SUMMER = %+v", term)
			}
		}
	}
	if !found {
		t.Error("START_OF_SUMMER missing")
	}

	if rr := env.do("GET", "/api/v1/solar-terms/abc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid year: Status = %d, want 400", rr.Code)
	}
}

func TestGetYearFrame(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/year-frames/2024", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var frame struct {
		AnchorYear     int  `json:"anchor_year"`
		Lunations      int  `json:"lunations"`
		HasLeapMonth   bool `json:"has_leap_month"`
		LeapMonthIndex int  `json:"leap_month_index"`
		Months         []struct {
			Index int `json:"index"`
			Month struct {
				Value int  `json:"value"`
				Leap  bool `json:"leap"`
			} `json:"month"`
			LunarYear int    `json:"lunar_year"`
			Starts    string `json:"starts"`
		} `json:"months"`
	}
	parseResponse(t, rr, &frame)

	if frame.AnchorYear != 2024 || frame.Lunations != 13 || !frame.HasLeapMonth || frame.LeapMonthIndex != 8 {
		t.Errorf("frame = %+v", frame)
	}
	if len(frame.Months) != 13 {
		t.Fatalf("got %d months, want 13", len(frame.Months))
	}
	if frame.Months[0].Starts != "2024-12-01" || frame.Months[0].Month.Value != 11 {
		t.Errorf("month 0 = %+v", frame.Months[0])
	}
	if m := frame.Months[2]; m.Starts != "2025-01-29" || m.Month.Value != 1 || m.LunarYear != 2025 {
		t.Errorf("month 2 = %+v", m)
	}
	if m := frame.Months[8]; m.Starts != "2025-07-25" || m.Month.Value != 6 || !m.Month.Leap {
		t.Errorf("month 8 = %+v", m)
	}
}

func TestListCalendars(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/calendars", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d", rr.Code)
	}

	var data struct {
		Default   string   `json:"default"`
		Calendars []string `json:"calendars"`
	}
	parseResponse(t, rr, &data)

	if data.Default != calendar.DefaultID || len(data.Calendars) != 1 {
		t.Errorf("calendars = %+v", data)
	}
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

func TestRunWarmup_Auth(t *testing.T) {
	env := setupTest(t)

	if rr := env.do("POST", "/api/v1/admin/warmup", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: Status = %d, want 401", rr.Code)
	}
	if rr := env.do("POST", "/api/v1/admin/warmup", "not-the-admin-key"); rr.Code != http.StatusForbidden {
		t.Errorf("wrong key: Status = %d, want 403", rr.Code)
	}
}

func TestRunWarmup(t *testing.T) {
	env := setupTest(t)

	rr := env.do("POST", "/api/v1/admin/warmup", env.adminKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var data struct {
		Frames int   `json:"frames"`
		Years  []int `json:"years"`
	}
	parseResponse(t, rr, &data)

	if data.Frames != 2 || len(data.Years) != 2 || data.Years[0] != 2025 {
		t.Errorf("warm-up = %+v", data)
	}
	if converter, _ := env.handlers.engine.Lunisolar(); converter.CachedFrames() != 2 {
		t.Errorf("CachedFrames() = %d, want 2", converter.CachedFrames())
	}
}

func TestRunWarmup_NotConfigured(t *testing.T) {
	env := setupTest(t)
	env.handlers.warmer = nil

	if rr := env.do("POST", "/api/v1/admin/warmup", env.adminKey); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rr.Code)
	}
}

func TestListCoefficientTables(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/admin/coefficients", env.adminKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var data struct {
		Tables []database.CoefficientTable `json:"tables"`
	}
	parseResponse(t, rr, &data)

	if len(data.Tables) != 1 || data.Tables[0].Name != database.DefaultTableName {
		t.Errorf("tables = %+v", data.Tables)
	}
}

// =============================================================================
// HEALTH, METRICS, MIDDLEWARE
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d", rr.Code)
	}

	var data map[string]any
	parseResponse(t, rr, &data)
	if data["status"] != "healthy" || data["solar"] != engine.SolarVSOP87 {
		t.Errorf("health = %+v", data)
	}
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	env := setupTest(t)
	env.db.Close()

	if rr := env.do("GET", "/health", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTest(t)

	env.do("GET", "/api/v1/calendars", "")
	env.do("GET", "/api/v1/lunar/date/2026-05-05", "")

	rr := env.do("GET", "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)

	for _, want := range []string{
		`amlich_http_requests_total{method="GET",route="/api/v1/calendars",status="200"} 1`,
		`amlich_http_requests_total{method="GET",route="/api/v1/lunar/date/{date}",status="200"} 1`,
		`amlich_cache_lookups_total{cache="year_frame",result="miss"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestNotFound(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/moon-phases/today", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", rr.Code)
	}
	if code := errorCode(t, rr); code != CodeNotFound {
		t.Errorf("Code = %q", code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	env := setupTest(t)

	rr := env.do("GET", "/api/v1/calendars", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}

	req := httptest.NewRequest("GET", "/api/v1/calendars", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream-id", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTest(t)

	rr := env.do("OPTIONS", "/api/v1/lunar/today", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", rr.Code)
	}
}

func TestAdminOnlyMiddleware_OpenInDevelopment(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDevelopment}
	handler := AdminOnlyMiddleware(cfg, slog.Default())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/admin/warmup", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rr.Code)
	}

	cfg.Env = config.EnvProduction
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/admin/warmup", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("production without key: Status = %d, want 401", rr.Code)
	}
}
