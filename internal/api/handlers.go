package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/amlich-api/internal/astro"
	"github.com/zapponejosh/amlich-api/internal/calendar"
	"github.com/zapponejosh/amlich-api/internal/config"
	"github.com/zapponejosh/amlich-api/internal/database"
	"github.com/zapponejosh/amlich-api/internal/engine"
	"github.com/zapponejosh/amlich-api/internal/logger"
	"github.com/zapponejosh/amlich-api/internal/timescale"
	"github.com/zapponejosh/amlich-api/internal/warmup"
)

// Deps are the services the handlers use. DB and Warmer are optional.
type Deps struct {
	Engine *engine.Engine
	DB     *database.DB
	Warmer *warmup.Warmer
	Config *config.Config
	Logger *slog.Logger

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	engine      *engine.Engine
	db          *database.DB
	warmer      *warmup.Warmer
	cfg         *config.Config
	defaultZone *time.Location
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) (*Handlers, error) {
	if deps.Engine == nil || deps.Config == nil {
		return nil, errors.New("engine and config are required")
	}
	loc, err := deps.Config.Location()
	if err != nil {
		return nil, fmt.Errorf("default zone: %w", err)
	}

	h := &Handlers{
		engine:      deps.Engine,
		db:          deps.DB,
		warmer:      deps.Warmer,
		cfg:         deps.Config,
		defaultZone: loc,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h, nil
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The database is only consulted when coefficients come from it
	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
			return
		}
	}

	status := map[string]any{
		"status":   "healthy",
		"calendar": h.engine.Calendar.ID(),
		"solar":    h.engine.Selection.Solar,
		"delta_t":  h.engine.Selection.DeltaT,
	}
	if l, ok := h.engine.Lunisolar(); ok {
		status["cached_frames"] = l.CachedFrames()
	}

	WriteSuccess(w, status)
}

// GetToday handles GET /api/v1/lunar/today
func (h *Handlers) GetToday(w http.ResponseWriter, r *http.Request) {
	loc, ok := h.zone(w, r)
	if !ok {
		return
	}
	h.writeDay(w, r, h.now().In(loc), loc)
}

// GetDate handles GET /api/v1/lunar/date/{date}
func (h *Handlers) GetDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	loc, ok := h.zone(w, r)
	if !ok {
		return
	}
	h.writeDay(w, r, date, loc)
}

func (h *Handlers) writeDay(w http.ResponseWriter, r *http.Request, date time.Time, loc *time.Location) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	at, err := coordinatesParam(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	day, err := cal.GetDate(date, loc)
	if err != nil {
		h.writeCalendarError(w, r, "convert date", err, slog.String("date", date.Format(time.DateOnly)))
		return
	}

	WriteSuccess(w, newDayResponse(cal.ID(), loc, day, at))
}

// GetRange handles GET /api/v1/lunar/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handlers) GetRange(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		WriteBadRequest(w, "Both start and end date parameters are required")
		return
	}

	startDate, err := parseDate(startStr)
	if err != nil {
		WriteBadRequest(w, "start: "+err.Error())
		return
	}
	endDate, err := parseDate(endStr)
	if err != nil {
		WriteBadRequest(w, "end: "+err.Error())
		return
	}

	if startDate.After(endDate) {
		WriteBadRequest(w, "Start date must be before or equal to end date")
		return
	}

	// Limit range to prevent abuse
	if days := int(endDate.Sub(startDate).Hours() / 24); days > MaxRangeDays {
		WriteBadRequest(w, fmt.Sprintf("Date range cannot exceed %d days", MaxRangeDays))
		return
	}

	loc, ok := h.zone(w, r)
	if !ok {
		return
	}
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	at, err := coordinatesParam(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	days := []DayResponse{}
	for current := startDate; !current.After(endDate); current = current.AddDate(0, 0, 1) {
		day, err := cal.GetDate(current, loc)
		if err != nil {
			h.writeCalendarError(w, r, "convert range", err, slog.String("date", current.Format(time.DateOnly)))
			return
		}
		days = append(days, newDayResponse(cal.ID(), loc, day, at))
	}

	WriteSuccess(w, map[string]any{
		"start": startStr,
		"end":   endStr,
		"zone":  loc.String(),
		"days":  days,
	})
}

// GetSolarTerms handles GET /api/v1/solar-terms/{year}
func (h *Handlers) GetSolarTerms(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	loc, ok := h.zone(w, r)
	if !ok {
		return
	}

	transitions := calendar.YearSolarTerms(h.engine.SolarTime, year)

	WriteSuccess(w, map[string]any{
		"year":  year,
		"zone":  loc.String(),
		"terms": newTermViews(transitions, loc),
	})
}

// GetYearFrame handles GET /api/v1/year-frames/{year}
func (h *Handlers) GetYearFrame(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	loc, ok := h.zone(w, r)
	if !ok {
		return
	}

	converter, ok := h.engine.Lunisolar()
	if !ok {
		WriteNotFound(w, fmt.Sprintf("Calendar %q does not expose year frames", h.engine.Calendar.ID()))
		return
	}

	frame, err := converter.Frame(year, loc)
	if err != nil {
		h.writeCalendarError(w, r, "compute year frame", err, slog.Int("year", year))
		return
	}

	starts, err := h.monthStarts(frame)
	if err != nil {
		h.writeCalendarError(w, r, "list month starts", err, slog.Int("year", year))
		return
	}

	WriteSuccess(w, newFrameView(frame, loc, starts))
}

// monthStarts lists the new moon opening each month of frame.
func (h *Handlers) monthStarts(frame calendar.YearFrame) ([]timescale.Moment, error) {
	starts := make([]timescale.Moment, 0, frame.Lunations)
	current := frame.NovemberNewMoon
	for i := 0; i < frame.Lunations; i++ {
		starts = append(starts, current)
		next, err := h.engine.LunarTime.After(current.PlusDays(1), astro.NewMoon)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return starts, nil
}

// ListCalendars handles GET /api/v1/calendars
func (h *Handlers) ListCalendars(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]any{
		"default":   h.engine.Calendar.ID(),
		"calendars": h.engine.Calendars.IDs(),
	})
}

// RunWarmup handles POST /api/v1/admin/warmup
func (h *Handlers) RunWarmup(w http.ResponseWriter, r *http.Request) {
	if h.warmer == nil {
		WriteUnavailable(w, "Warm-up is not configured")
		return
	}

	n, err := h.warmer.WarmUp(r.Context())
	if err != nil {
		if errors.Is(err, warmup.ErrRunning) {
			WriteError(w, http.StatusConflict, "Warm-up already running", CodeConflict)
			return
		}
		h.writeCalendarError(w, r, "warm-up", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"frames": n,
		"years":  h.warmer.Years(),
	})
}

// ListCoefficientTables handles GET /api/v1/admin/coefficients
func (h *Handlers) ListCoefficientTables(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteUnavailable(w, "No coefficient database configured")
		return
	}

	tables, err := h.db.ListCoefficientTables(r.Context())
	if err != nil {
		logger.Error(r.Context(), "failed to list coefficient tables", err)
		WriteInternalError(w, "Failed to list coefficient tables")
		return
	}

	WriteSuccess(w, map[string]any{"tables": tables})
}

// zone resolves ?zone= and writes a 400 when it is unknown.
func (h *Handlers) zone(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	loc, err := zoneParam(r, h.defaultZone)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return nil, false
	}
	return loc, true
}

// calendar resolves ?calendar= against the registry, defaulting to the
// configured calendar.
func (h *Handlers) calendar(w http.ResponseWriter, r *http.Request) (calendar.Calendar, bool) {
	id := r.URL.Query().Get("calendar")
	if id == "" {
		return h.engine.Calendar, true
	}
	cal, err := h.engine.Calendars.Get(id)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Unknown calendar %q", id))
		return nil, false
	}
	return cal, true
}

// writeCalendarError maps core errors to responses. Every error reaching
// here is a server-side failure; invalid input is rejected before the core
// is called.
func (h *Handlers) writeCalendarError(w http.ResponseWriter, r *http.Request, op string, err error, attrs ...any) {
	ctx := r.Context()

	var invariant *calendar.InvariantError
	switch {
	case errors.As(err, &invariant):
		logger.Error(ctx, op+": model invariant violated", err, append(attrs, slog.Int("anchor_year", invariant.AnchorYear))...)
		WriteError(w, http.StatusInternalServerError, "Calendar model inconsistency", CodeModelInvariant)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn(ctx, op+": request cancelled", append(attrs, slog.Any("error", err))...)
		WriteUnavailable(w, "Request cancelled")
	default:
		logger.Error(ctx, op+" failed", err, attrs...)
		WriteInternalError(w, "Calendar computation failed")
	}
}
