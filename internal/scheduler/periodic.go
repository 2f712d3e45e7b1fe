package scheduler

import (
	"context"
	"fmt"

	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers the recurring maintenance tasks with asynq's
// cron-style scheduler: a nightly full rescoring sweep and an hourly
// distribution pass over unassigned leads.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	sched := asynq.NewScheduler(opt, nil)

	rescoring, err := NewRecalculateScoresTask(RecalculateScoresPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register("0 3 * * *", rescoring, asynq.Queue(queue)); err != nil {
		return nil, err
	}

	sweep, err := NewDistributeBatchTask(DistributeBatchPayload{BatchSize: 200})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register("@hourly", sweep, asynq.Queue(queue)); err != nil {
		return nil, err
	}

	return &Periodic{scheduler: sched, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		p.scheduler.Shutdown()
	}()

	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}
