// Package session orchestrates one record/validate session: start
// capture, stop it, then either persist the records as a snapshot or
// compare them against a stored reference.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/netsnap/internal/capture"
	"github.com/yourorg/netsnap/internal/compare"
	"github.com/yourorg/netsnap/internal/config"
	"github.com/yourorg/netsnap/internal/filter"
	"github.com/yourorg/netsnap/internal/history"
	"github.com/yourorg/netsnap/internal/snapshot"
	"github.com/yourorg/netsnap/pkg/types"
)

var (
	// ErrAlreadyStarted is returned by Start while a capture is active.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrNotStarted is returned by Record/Validate before Start.
	ErrNotStarted = errors.New("session not started")
)

type state int

const (
	stateIdle state = iota
	stateRecording
)

// Controller drives a single session. One controller per test; callers
// invoke Start, then exactly one of Record or Validate. Not safe for
// concurrent use.
type Controller struct {
	store    snapshot.Store
	source   capture.Source
	filter   filter.Filter
	sanitize config.SanitizeConfig
	history  *history.SQLiteStore
	logger   *slog.Logger

	state state
}

// Option configures a Controller.
type Option func(*Controller)

// WithFilter sets the record filter applied at capture and comparison.
func WithFilter(f filter.Filter) Option {
	return func(c *Controller) { c.filter = f }
}

// WithHistory enables run auditing.
func WithHistory(h *history.SQLiteStore) Option {
	return func(c *Controller) { c.history = h }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New builds a controller from config. The snapshot directory is the
// one required setting; its absence is a construction error.
func New(cfg *config.Config, source capture.Source, opts ...Option) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if source == nil {
		return nil, errors.New("capture source is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := snapshot.NewFileStore(cfg.Snapshots.Dir)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		store:    store,
		source:   source,
		filter:   filter.FromConfig(cfg.Filter),
		sanitize: cfg.Sanitize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start begins capturing.
func (c *Controller) Start() error {
	if c.state == stateRecording {
		return ErrAlreadyStarted
	}
	if err := c.source.Begin(); err != nil {
		return fmt.Errorf("begin capture: %w", err)
	}
	c.state = stateRecording
	return nil
}

// Record stops capture and persists the captured records under name.
func (c *Controller) Record(name string) error {
	records, err := c.stop()
	if err != nil {
		return err
	}
	snap := types.Snapshot{Name: name, Records: filter.Sanitize(records, c.sanitize)}
	if err := c.store.Save(snap); err != nil {
		return err
	}
	c.log().Info("snapshot recorded", "name", name, "requests", len(records))
	c.audit(history.Run{
		Snapshot: name,
		Mode:     "record",
		Outcome:  history.OutcomeRecorded,
		Requests: len(records),
	})
	return nil
}

// Validate stops capture, loads the reference snapshot and compares the
// live records against it. A non-nil error means the session could not
// run; a failed comparison is reported through the Result.
func (c *Controller) Validate(name string) (compare.Result, error) {
	records, err := c.stop()
	if err != nil {
		return compare.Result{}, err
	}
	ref, err := c.store.Load(name)
	if err != nil {
		return compare.Result{}, err
	}
	// Sanitize the live side too: recorded references hold redacted
	// values, so the comparison must see the same redaction.
	live := types.Snapshot{Name: name, Records: filter.Sanitize(records, c.sanitize)}
	result := compare.Compare(ref, live, c.filter)

	run := history.Run{
		Snapshot: name,
		Mode:     "validate",
		Outcome:  history.OutcomePassed,
		Requests: len(records),
	}
	if result.OK() {
		c.log().Info("snapshot validated", "name", name, "requests", len(records))
	} else {
		run.Outcome = history.OutcomeFailed
		run.Detail = result.String()
		c.log().Warn("snapshot validation failed", "name", name, "diagnostic", result.String())
	}
	c.audit(run)
	return result, nil
}

func (c *Controller) stop() ([]types.Record, error) {
	if c.state != stateRecording {
		return nil, ErrNotStarted
	}
	c.state = stateIdle
	records, err := c.source.End(c.filter)
	if err != nil {
		return nil, fmt.Errorf("end capture: %w", err)
	}
	return records, nil
}

func (c *Controller) audit(run history.Run) {
	if c.history == nil {
		return
	}
	if err := c.history.Append(run); err != nil {
		c.log().Warn("history append failed", "error", err)
	}
}

func (c *Controller) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
