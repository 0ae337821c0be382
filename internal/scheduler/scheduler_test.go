package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func noopRetrain(ctx context.Context, symbol string) error {
	return nil
}

func TestScheduleRetrainingInvalidCron(t *testing.T) {
	s := New(testLogger(), time.Minute)
	err := s.ScheduleRetraining("not a cron", []string{"AAPL"}, noopRetrain)
	assert.Error(t, err)
}

func TestScheduleRetrainingNoSymbols(t *testing.T) {
	s := New(testLogger(), time.Minute)
	err := s.ScheduleRetraining("@daily", nil, noopRetrain)
	assert.Error(t, err)
}

func TestStartWithoutJobs(t *testing.T) {
	s := New(testLogger(), time.Minute)
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := New(testLogger(), time.Minute)
	require.NoError(t, s.ScheduleRetraining("@daily", []string{"AAPL", "MSFT"}, noopRetrain))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	next, err := s.GetNextRun()
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestRunRetrainingContinuesOnFailure(t *testing.T) {
	s := New(testLogger(), time.Minute)

	seen := make([]string, 0)
	retrain := func(ctx context.Context, symbol string) error {
		seen = append(seen, symbol)
		if symbol == "MSFT" {
			return assert.AnError
		}
		return nil
	}

	s.runRetraining([]string{"AAPL", "MSFT", "GOOG"}, retrain)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, seen)
}
