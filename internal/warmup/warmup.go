// Package warmup pre-computes year frames on a cron schedule so requests
// around the current year never pay for the leap-month search.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zapponejosh/amlich-api/internal/calendar"
)

// FrameSource computes (and caches) year frames.
type FrameSource interface {
	Frame(anchorYear int, loc *time.Location) (calendar.YearFrame, error)
}

// Observer is told the outcome of every run.
type Observer interface {
	ObserveWarmup(frames int, err error)
}

// ErrRunning is returned by WarmUp when another run is in progress.
var ErrRunning = errors.New("warm-up already running")

// Warmer computes the frames covering the current year plus Span years on
// either side, for each zone.
type Warmer struct {
	frames   FrameSource
	zones    []*time.Location
	span     int
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	running sync.Mutex
	cron    *cron.Cron
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Warmer) { w.logger = l }
}

// WithObserver reports run outcomes, typically to metrics.
func WithObserver(o Observer) Option {
	return func(w *Warmer) { w.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Warmer) { w.now = now }
}

// New returns a Warmer. A negative span is treated as zero.
func New(frames FrameSource, zones []*time.Location, span int, opts ...Option) *Warmer {
	w := &Warmer{
		frames: frames,
		zones:  zones,
		span:   max(span, 0),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Years returns the anchor years a run covers. Dates in year y fall in the
// frames anchored at y-1 and y, so the range starts one year early.
func (w *Warmer) Years() []int {
	current := w.now().Year()
	years := make([]int, 0, 2*w.span+2)
	for y := current - w.span - 1; y <= current+w.span; y++ {
		years = append(years, y)
	}
	return years
}

// WarmUp computes every frame in range and returns how many it touched.
// It stops at the first error or when ctx is done.
func (w *Warmer) WarmUp(ctx context.Context) (int, error) {
	if !w.running.TryLock() {
		return 0, ErrRunning
	}
	defer w.running.Unlock()

	start := time.Now()
	n, err := w.warm(ctx)
	if w.observer != nil {
		w.observer.ObserveWarmup(n, err)
	}
	if err != nil {
		w.logger.Error("year frame warm-up failed", "error", err, "frames", n)
		return n, err
	}

	w.logger.Info("year frame warm-up complete",
		"frames", n,
		"zones", len(w.zones),
		"duration", time.Since(start),
	)
	return n, nil
}

func (w *Warmer) warm(ctx context.Context) (int, error) {
	n := 0
	for _, loc := range w.zones {
		for _, year := range w.Years() {
			if err := ctx.Err(); err != nil {
				return n, err
			}
			if _, err := w.frames.Frame(year, loc); err != nil {
				return n, fmt.Errorf("frame %d in %s: %w", year, loc, err)
			}
			n++
		}
	}
	return n, nil
}

// Run implements cron.Job.
func (w *Warmer) Run() {
	if _, err := w.WarmUp(context.Background()); errors.Is(err, ErrRunning) {
		w.logger.Warn("skipping scheduled warm-up", "error", err)
	}
}

// ParseSchedule validates a standard cron spec or descriptor such as
// "@daily".
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse warm-up schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// Start runs the warm-up once in the background and then on schedule.
func (w *Warmer) Start(spec string) error {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return err
	}

	w.cron = cron.New(cron.WithLogger(cronLogger{w.logger}))
	w.cron.Schedule(schedule, w)
	w.cron.Start()

	w.logger.Info("year frame warm-up scheduled",
		"schedule", spec,
		"next", schedule.Next(w.now()).Format(time.RFC3339),
	)

	go w.Run()
	return nil
}

// Stop halts the scheduler. The returned context is done once a running
// job finishes.
func (w *Warmer) Stop() context.Context {
	if w.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return w.cron.Stop()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
