package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type runnerFunc func(ctx context.Context, now time.Time) (Result, error)

func (f runnerFunc) Run(ctx context.Context, now time.Time) (Result, error) { return f(ctx, now) }

func TestScheduler_Schedule(t *testing.T) {
	s := NewScheduler(runnerFunc(func(context.Context, time.Time) (Result, error) { return Result{}, nil }), zap.NewNop())

	assert.True(t, s.Next(runAt).IsZero())
	require.NoError(t, s.Schedule(context.Background(), "0 9 * * *"))
	assert.Equal(t, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC), s.Next(runAt))

	assert.Error(t, s.Schedule(context.Background(), "every morning"))
}

func TestScheduler_RunOnceHasDeadline(t *testing.T) {
	var hadDeadline bool
	s := NewScheduler(runnerFunc(func(ctx context.Context, now time.Time) (Result, error) {
		_, hadDeadline = ctx.Deadline()
		return Result{Sent: 1}, errors.New("partial")
	}), zap.NewNop())

	s.runOnce(context.Background())
	assert.True(t, hadDeadline)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(runnerFunc(func(context.Context, time.Time) (Result, error) { return Result{}, nil }), zap.NewNop())
	require.NoError(t, s.Schedule(context.Background(), "@every 1h"))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
