// Package session holds the state of an analysis session and the transitions
// between its statuses.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/f3rmion/inflaton/internal/llm"
)

// FallbackError is shown when a failure carries no message.
const FallbackError = "Calculation failed. Check the theory description and try again."

var (
	// ErrEmptyInput is returned by Begin when the input is blank. State is unchanged.
	ErrEmptyInput = errors.New("input is empty")
	// ErrBusy is returned by Begin while a run is in flight. State is unchanged.
	ErrBusy = errors.New("a calculation is already running")
)

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Input  string
	Status cosmo.CalculationStatus
	Result *cosmo.CalculationResponse
	Logs   []LogLine
	Err    string
}

// Run is one in-flight request issued by Begin.
type Run struct {
	ID     uint64
	Theory string // input as typed, surrounding whitespace included

	ctx      context.Context
	analyzer llm.Analyzer
}

// Completion is the outcome of a Run, applied with Controller.Complete.
type Completion struct {
	RunID  uint64
	Result *cosmo.CalculationResponse
	Err    error
}

// Execute performs the request. It blocks until the analyzer returns and
// touches no controller state, so it may run on any goroutine.
func (r Run) Execute() Completion {
	res, err := r.analyzer.Analyze(r.ctx, r.Theory)
	if err == nil && res == nil {
		err = errors.New("")
	}
	return Completion{RunID: r.ID, Result: res, Err: err}
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.log.now = now
	}
}

// WithModelName sets the model name mentioned in the run log.
func WithModelName(name string) Option {
	return func(c *Controller) {
		c.model = name
	}
}

// Controller owns the session state. Every change goes through Begin,
// Complete, Clear or SetInput. It is not safe for concurrent use; only
// Run.Execute may be called from another goroutine.
type Controller struct {
	analyzer llm.Analyzer
	model    string

	input  string
	status cosmo.CalculationStatus
	result *cosmo.CalculationResponse
	log    Log
	err    string

	seq      uint64
	inFlight uint64
	cancel   context.CancelFunc
}

// New creates a controller in the Idle state.
func New(analyzer llm.Analyzer, opts ...Option) *Controller {
	c := &Controller{
		analyzer: analyzer,
		model:    "remote model",
		status:   cosmo.StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetInput replaces the theory text.
func (c *Controller) SetInput(s string) {
	c.input = s
}

// Input returns the theory text.
func (c *Controller) Input() string {
	return c.input
}

// Status returns the current status.
func (c *Controller) Status() cosmo.CalculationStatus {
	return c.status
}

// Result returns the last successful response, nil unless status is Success.
func (c *Controller) Result() *cosmo.CalculationResponse {
	return c.result
}

// Err returns the error message of a failed run.
func (c *Controller) Err() string {
	return c.err
}

// Logs returns the run log.
func (c *Controller) Logs() []LogLine {
	return c.log.Lines()
}

// CanRun reports whether Begin would start a run.
func (c *Controller) CanRun() bool {
	return c.status != cosmo.StatusDeriving && strings.TrimSpace(c.input) != ""
}

// Snapshot returns a copy of the state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Input:  c.input,
		Status: c.status,
		Result: c.result,
		Logs:   c.log.Lines(),
		Err:    c.err,
	}
}

// Begin moves to Deriving and returns the run to execute. A blank input or a
// run already in flight leaves the state untouched.
func (c *Controller) Begin(ctx context.Context) (Run, error) {
	theory := strings.TrimSpace(c.input)
	if theory == "" {
		return Run{}, ErrEmptyInput
	}
	if c.status == cosmo.StatusDeriving {
		return Run{}, ErrBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.seq++
	c.inFlight = c.seq
	c.cancel = cancel

	c.status = cosmo.StatusDeriving
	c.result = nil
	c.err = ""
	c.log.Reset()
	c.log.Append("Initializing inflation solver...")
	c.log.Append("Parsing action: " + truncate(theory, 60))
	c.log.Append(fmt.Sprintf("Requesting slow-roll derivation from %s...", c.model))

	return Run{
		ID:       c.inFlight,
		Theory:   c.input,
		ctx:      runCtx,
		analyzer: c.analyzer,
	}, nil
}

// Complete applies the outcome of a run. Outcomes of runs other than the
// one in flight are dropped and false is returned.
func (c *Controller) Complete(done Completion) bool {
	if c.status != cosmo.StatusDeriving || done.RunID != c.inFlight {
		return false
	}
	c.release()

	if done.Err != nil {
		c.status = cosmo.StatusError
		c.err = ErrorMessage(done.Err)
		c.log.Append("Error: calculation failed.")
		return true
	}

	c.status = cosmo.StatusSuccess
	c.result = done.Result
	c.log.Append("Derivation complete: " + done.Result.Summary())
	return true
}

// Clear cancels any run in flight and resets every slot to Idle.
func (c *Controller) Clear() {
	c.release()
	c.input = ""
	c.status = cosmo.StatusIdle
	c.result = nil
	c.err = ""
	c.log.Reset()
}

// RunSync begins a run, executes it on the calling goroutine and applies it.
func (c *Controller) RunSync(ctx context.Context) error {
	run, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	c.Complete(run.Execute())
	if c.status == cosmo.StatusError {
		return errors.New(c.err)
	}
	return nil
}

func (c *Controller) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inFlight = 0
}

// ErrorMessage returns the text shown for a failed run.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return err.Error()
	}
	return FallbackError
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
