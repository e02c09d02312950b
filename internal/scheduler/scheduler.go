// Package scheduler runs the pipeline on a cron spec for deployments
// without an external scheduler.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"newsdigest/internal/pipeline"
)

const (
	timezone              = "UTC"
	timezoneOffsetSeconds = 0
	runTimeout            = 30 * time.Minute
)

type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	spec     string
	log      *slog.Logger
}

func New(
	ctx context.Context,
	p *pipeline.Pipeline,
	spec string,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(timezone, timezoneOffsetSeconds)))

	return &Scheduler{
		ctx:      ctx,
		cron:     c,
		pipeline: p,
		spec:     spec,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runPipeline); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runPipeline() {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	if err := s.pipeline.Run(ctx); err != nil {
		if errors.Is(err, pipeline.ErrDeliveryIncomplete) {
			s.log.WarnContext(ctx, "Scheduled run ended with incomplete delivery",
				"error", err)
			return
		}

		s.log.ErrorContext(ctx, "Scheduled run failed",
			"error", err)
	}
}
