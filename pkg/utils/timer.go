package utils

import (
	"fmt"
	"strings"
	"time"
)

// Stage is one timed step of a run.
type Stage struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
}

// StageTimer records sequential stages of a command such as scan, build and report.
// It is not safe for concurrent use.
type StageTimer struct {
	name    string
	clock   Clock
	logger  Logger
	started time.Time
	stages  []Stage
}

// TimerOption configures a StageTimer.
type TimerOption func(*StageTimer)

// WithLogger logs each stage at Debug level when it stops.
func WithLogger(logger Logger) TimerOption {
	return func(t *StageTimer) {
		t.logger = logger
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) TimerOption {
	return func(t *StageTimer) {
		t.clock = clock
	}
}

// NewStageTimer creates a timer whose total starts now.
func NewStageTimer(name string, opts ...TimerOption) *StageTimer {
	t := &StageTimer{
		name:   name,
		clock:  RealClock{},
		logger: &NullLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.started = t.clock.Now()
	return t
}

// Start begins a stage and returns the function that ends it.
// Calling the returned function more than once records the stage once.
func (t *StageTimer) Start(stage string) func() time.Duration {
	begin := t.clock.Now()
	var (
		done    bool
		elapsed time.Duration
	)
	return func() time.Duration {
		if done {
			return elapsed
		}
		done = true
		elapsed = t.clock.Now().Sub(begin)
		t.stages = append(t.stages, Stage{Name: stage, Duration: elapsed})
		t.logger.Debug("%s: %s took %s", t.name, stage, elapsed)
		return elapsed
	}
}

// Stages returns the completed stages in completion order.
func (t *StageTimer) Stages() []Stage {
	out := make([]Stage, len(t.stages))
	copy(out, t.stages)
	return out
}

// Total is the time since the timer was created.
func (t *StageTimer) Total() time.Duration {
	return t.clock.Now().Sub(t.started)
}

// Summary renders "name: total (stage=dur, ...)".
func (t *StageTimer) Summary() string {
	parts := make([]string, 0, len(t.stages))
	for _, s := range t.stages {
		parts = append(parts, fmt.Sprintf("%s=%s", s.Name, s.Duration))
	}
	return fmt.Sprintf("%s: %s (%s)", t.name, t.Total(), strings.Join(parts, ", "))
}
