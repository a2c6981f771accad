package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newscloud/classifieds-service/internal/config"
)

type fakeSweeper struct {
	calls int
}

func (f *fakeSweeper) SweepExpired(_ context.Context, _ time.Time) (int, error) {
	f.calls++
	return 0, nil
}

type fakeIngestor struct {
	calls   int
	gotUser string
	gotList string
	err     error
}

func (f *fakeIngestor) SaveList(_ context.Context, user, list string) (int, error) {
	f.calls++
	f.gotUser = user
	f.gotList = list
	return 3, f.err
}

func sweepConfig() *config.SweepConfig {
	return &config.SweepConfig{
		ExpireSchedule: "@hourly",
		TweetSchedule:  "*/30 * * * *",
		IngestSchedule: "*/15 * * * *",
	}
}

func TestScheduler_Start_RegistersIngestJob(t *testing.T) {
	t.Run("ingest job scheduled when a list is configured", func(t *testing.T) {
		s := NewScheduler(sweepConfig(), &fakeSweeper{}, nil, nil,
			&fakeIngestor{}, IngestTarget{User: "newscloud", List: "editors"}, zap.NewNop())

		require.NoError(t, s.Start())
		defer s.Stop()
		assert.Len(t, s.cron.Entries(), 2)
	})

	t.Run("no ingest job without a list", func(t *testing.T) {
		s := NewScheduler(sweepConfig(), &fakeSweeper{}, nil, nil,
			&fakeIngestor{}, IngestTarget{User: "newscloud"}, zap.NewNop())

		require.NoError(t, s.Start())
		defer s.Stop()
		assert.Len(t, s.cron.Entries(), 1)
	})

	t.Run("no ingest job without an ingestor", func(t *testing.T) {
		s := NewScheduler(sweepConfig(), &fakeSweeper{}, nil, nil,
			nil, IngestTarget{User: "newscloud", List: "editors"}, zap.NewNop())

		require.NoError(t, s.Start())
		defer s.Stop()
		assert.Len(t, s.cron.Entries(), 1)
	})
}

func TestScheduler_Start_RejectsBadIngestSchedule(t *testing.T) {
	cfg := sweepConfig()
	cfg.IngestSchedule = "not a cron expression"
	s := NewScheduler(cfg, &fakeSweeper{}, nil, nil,
		&fakeIngestor{}, IngestTarget{User: "newscloud", List: "editors"}, zap.NewNop())

	assert.Error(t, s.Start())
}

func TestScheduler_RunIngest(t *testing.T) {
	t.Run("passes the configured target", func(t *testing.T) {
		ingestor := &fakeIngestor{}
		s := NewScheduler(sweepConfig(), &fakeSweeper{}, nil, nil,
			ingestor, IngestTarget{User: "newscloud", List: "editors"}, zap.NewNop())

		s.runIngest()

		assert.Equal(t, 1, ingestor.calls)
		assert.Equal(t, "newscloud", ingestor.gotUser)
		assert.Equal(t, "editors", ingestor.gotList)
	})

	t.Run("ingest failure is logged, not fatal", func(t *testing.T) {
		ingestor := &fakeIngestor{err: errors.New("api down")}
		s := NewScheduler(sweepConfig(), &fakeSweeper{}, nil, nil,
			ingestor, IngestTarget{User: "newscloud", List: "editors"}, zap.NewNop())

		s.runIngest()

		assert.Equal(t, 1, ingestor.calls)
	})
}

func TestScheduler_RunSweep(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := NewScheduler(sweepConfig(), sweeper, nil, nil, nil, IngestTarget{}, zap.NewNop())

	s.runSweep()

	assert.Equal(t, 1, sweeper.calls)
}
