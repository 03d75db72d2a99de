package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"huntboard/tracker-service/internal/lifecycle"
	"huntboard/tracker-service/internal/telemetry"
)

// Collector periodically refreshes the per-status entity gauges from the
// database, so Prometheus sees current pipeline shape without per-request
// queries.
type Collector struct {
	cron *cron.Cron
	svc  *Service
	spec string
}

// NewCollector builds a collector that refreshes every interval.
func NewCollector(svc *Service, interval time.Duration) *Collector {
	return &Collector{
		cron: cron.New(),
		svc:  svc,
		spec: fmt.Sprintf("@every %s", interval),
	}
}

// Start registers the refresh job and runs one refresh immediately so the
// gauges are populated without waiting for the first tick.
func (c *Collector) Start(ctx context.Context) error {
	_, err := c.cron.AddFunc(c.spec, func() {
		c.refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	c.cron.Start()
	log.Printf("[analytics] Status gauge refresh started (%s)", c.spec)

	go c.refresh(ctx)
	return nil
}

// Stop shuts the refresh loop down.
func (c *Collector) Stop() {
	c.cron.Stop()
	log.Println("[analytics] Status gauge refresh stopped")
}

func (c *Collector) refresh(ctx context.Context) {
	for _, kind := range []lifecycle.Kind{lifecycle.KindVacancy, lifecycle.KindRecruiter} {
		counts, err := c.svc.GlobalStatusCounts(ctx, kind)
		if err != nil {
			log.Printf("[analytics] refresh %s counts: %v", kind, err)
			continue
		}
		for status, n := range counts {
			telemetry.EntitiesByStatus.WithLabelValues(string(kind), string(status)).Set(float64(n))
		}
	}
}
