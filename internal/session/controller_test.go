package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// The genai dependency starts an opencensus stats worker at init that
// never exits.
var leakOpts = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, leakOpts...)
}

type fakeAnalyzer struct {
	result *cosmo.CalculationResponse
	err    error
	block  bool
	calls  []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, theory string) (*cosmo.CalculationResponse, error) {
	f.calls = append(f.calls, theory)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func starobinsky() *cosmo.CalculationResponse {
	return &cosmo.CalculationResponse{
		TheoryName:      "Starobinsky",
		DerivationSteps: []cosmo.DerivationStep{{Title: "Potential", Content: "..."}},
		Observables:     cosmo.ObservableResult{Ns: 0.965, R: 0.003, As: 2.1e-9},
		SpectrumData:    []cosmo.SpectrumPoint{{K: 0.05, Scalar: 2.1e-9, Tensor: 6.3e-12}},
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestBeginMovesToDerivingBeforeRequest(t *testing.T) {
	fake := &fakeAnalyzer{result: starobinsky()}

	for _, from := range []cosmo.CalculationStatus{cosmo.StatusIdle, cosmo.StatusSuccess, cosmo.StatusError} {
		t.Run(from.String(), func(t *testing.T) {
			c := New(fake, WithClock(fixedClock()))
			c.status = from
			c.err = "old failure"
			c.log.Append("old line")
			c.SetInput("Starobinsky Inflation")

			run, err := c.Begin(context.Background())
			require.NoError(t, err)

			assert.Equal(t, cosmo.StatusDeriving, c.Status())
			assert.Empty(t, c.Err())
			assert.Nil(t, c.Result())
			assert.Len(t, c.Logs(), 3)
			assert.Equal(t, "[12:30:00] Initializing inflation solver...", c.Logs()[0].String())
			assert.Equal(t, "Starobinsky Inflation", run.Theory)

			c.Complete(run.Execute())
		})
	}
}

func TestBeginSendsRawInput(t *testing.T) {
	fake := &fakeAnalyzer{result: starobinsky()}
	c := New(fake, WithClock(fixedClock()))
	c.SetInput("  Starobinsky Inflation\n")

	run, err := c.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[12:30:00] Parsing action: Starobinsky Inflation", c.Logs()[1].String())

	require.True(t, c.Complete(run.Execute()))
	assert.Equal(t, []string{"  Starobinsky Inflation\n"}, fake.calls)
}

func TestClearedRunLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, leakOpts...)

	c := New(&fakeAnalyzer{block: true})
	c.SetInput("hilltop")
	run, err := c.Begin(context.Background())
	require.NoError(t, err)

	done := make(chan Completion)
	go func() { done <- run.Execute() }()
	c.Clear()
	<-done
}

func TestBeginBlankInputIsNoOp(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t "} {
		fake := &fakeAnalyzer{}
		c := New(fake)
		c.status = cosmo.StatusError
		c.err = "previous"
		c.log.Append("kept")
		c.SetInput(input)
		before := c.Snapshot()

		_, err := c.Begin(context.Background())

		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Equal(t, before, c.Snapshot())
		assert.Empty(t, fake.calls)
	}
}

func TestBeginWhileDerivingIsRejected(t *testing.T) {
	c := New(&fakeAnalyzer{result: starobinsky()})
	c.SetInput("chaotic")

	run, err := c.Begin(context.Background())
	require.NoError(t, err)
	before := c.Snapshot()

	_, err = c.Begin(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, c.Snapshot())

	assert.True(t, c.Complete(run.Execute()))
}

func TestCompleteSuccess(t *testing.T) {
	want := starobinsky()
	c := New(&fakeAnalyzer{result: want}, WithModelName("gemini-test"))
	c.SetInput("Starobinsky Inflation")

	require.NoError(t, c.RunSync(context.Background()))

	assert.Equal(t, cosmo.StatusSuccess, c.Status())
	assert.Same(t, want, c.Result())
	assert.Empty(t, c.Err())
	logs := c.Logs()
	require.Len(t, logs, 4)
	assert.Equal(t, "Requesting slow-roll derivation from gemini-test...", logs[2].Text)
	assert.Equal(t, "Derivation complete: Starobinsky (n_s=0.9650, r=0.00300)", logs[3].Text)
}

func TestCompleteFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "message", err: errors.New("network timeout"), want: "network timeout"},
		{name: "no message", err: errors.New(""), want: FallbackError},
		{name: "whitespace message", err: errors.New("  "), want: FallbackError},
		{name: "parse failure", err: cosmo.ErrMissingField, want: "missing required field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeAnalyzer{err: tt.err})
			c.SetInput("Higgs inflation")

			err := c.RunSync(context.Background())

			require.Error(t, err)
			assert.Equal(t, cosmo.StatusError, c.Status())
			assert.Equal(t, tt.want, c.Err())
			assert.Nil(t, c.Result())
			assert.Equal(t, "Error: calculation failed.", c.Logs()[len(c.Logs())-1].Text)
		})
	}
}

func TestNilResultWithoutErrorFails(t *testing.T) {
	c := New(&fakeAnalyzer{})
	c.SetInput("x")

	require.Error(t, c.RunSync(context.Background()))
	assert.Equal(t, FallbackError, c.Err())
}

func TestFailedRerunDropsPreviousResult(t *testing.T) {
	fake := &fakeAnalyzer{result: starobinsky()}
	c := New(fake)
	c.SetInput("Starobinsky")
	require.NoError(t, c.RunSync(context.Background()))
	require.NotNil(t, c.Result())

	fake.result, fake.err = nil, errors.New("boom")
	require.Error(t, c.RunSync(context.Background()))

	assert.Equal(t, cosmo.StatusError, c.Status())
	assert.Nil(t, c.Result())
}

func TestClearResetsEverything(t *testing.T) {
	for _, fail := range []bool{false, true} {
		fake := &fakeAnalyzer{result: starobinsky()}
		if fail {
			fake.err = errors.New("boom")
		}
		c := New(fake)
		c.SetInput("Natural inflation")
		_ = c.RunSync(context.Background())

		c.Clear()

		assert.Equal(t, Snapshot{Status: cosmo.StatusIdle}, c.Snapshot())
	}
}

func TestClearDropsInFlightResponse(t *testing.T) {
	fake := &fakeAnalyzer{block: true}
	c := New(fake)
	c.SetInput("hilltop")

	run, err := c.Begin(context.Background())
	require.NoError(t, err)

	done := make(chan Completion)
	go func() { done <- run.Execute() }()

	c.Clear()
	completion := <-done

	assert.ErrorIs(t, completion.Err, context.Canceled)
	assert.False(t, c.Complete(completion))
	assert.Equal(t, cosmo.StatusIdle, c.Status())
	assert.Empty(t, c.Err())
}

func TestStaleCompletionIgnored(t *testing.T) {
	c := New(&fakeAnalyzer{result: starobinsky()})
	c.SetInput("first")
	first, err := c.Begin(context.Background())
	require.NoError(t, err)
	c.Clear()

	c.SetInput("second")
	second, err := c.Begin(context.Background())
	require.NoError(t, err)

	assert.False(t, c.Complete(first.Execute()))
	assert.Equal(t, cosmo.StatusDeriving, c.Status())
	assert.True(t, c.Complete(second.Execute()))
	assert.Equal(t, cosmo.StatusSuccess, c.Status())
}

func TestCanRun(t *testing.T) {
	c := New(&fakeAnalyzer{result: starobinsky()})
	assert.False(t, c.CanRun())

	c.SetInput("  ")
	assert.False(t, c.CanRun())

	c.SetInput("chaotic")
	assert.True(t, c.CanRun())

	run, err := c.Begin(context.Background())
	require.NoError(t, err)
	assert.False(t, c.CanRun())
	c.Complete(run.Execute())
	assert.True(t, c.CanRun())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
