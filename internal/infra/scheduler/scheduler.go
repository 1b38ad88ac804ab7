package scheduler

import (
	"context"
	"time"

	"tutorials_api/internal/app" // For Inventory

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// InventorySource reports tutorial counts.
type InventorySource interface {
	Inventory(ctx context.Context) (app.Inventory, error)
}

// InventorySink receives each successful count.
type InventorySink interface {
	SetInventory(stored, published int64)
}

const refreshTimeout = 30 * time.Second

// StatsScheduler periodically refreshes the inventory gauges.
type StatsScheduler struct {
	cronEngine *cron.Cron
	source     InventorySource
	sink       InventorySink
	logger     *logrus.Entry
	cronSpec   string
}

func NewStatsScheduler(source InventorySource, sink InventorySink, logger *logrus.Entry, cronSpec string) *StatsScheduler {
	return &StatsScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		source:     source,
		sink:       sink,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

// Start registers the refresh job and starts the cron engine. It runs one
// refresh immediately so the gauges are populated before the first tick.
func (s *StatsScheduler) Start() error {
	s.logger.Info("Starting stats scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpec, s.Refresh); err != nil {
		return err
	}

	s.Refresh()
	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Stats scheduler started.")
	return nil
}

// Refresh counts tutorials once and pushes the result to the sink.
func (s *StatsScheduler) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	inv, err := s.source.Inventory(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Inventory refresh failed")
		return
	}
	s.sink.SetInventory(inv.Stored, inv.Published)
	s.logger.WithFields(logrus.Fields{
		"stored":    inv.Stored,
		"published": inv.Published,
	}).Debug("Inventory refreshed")
}

func (s *StatsScheduler) Stop() {
	s.logger.Info("Stopping stats scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Stats scheduler gracefully stopped.")
}
