package scheduler

import (
	"context"
	"fmt"

	"estate_crm_backend/internal/distribution"
	"estate_crm_backend/internal/leads/scoring"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker consumes the scheduled and enqueued maintenance tasks: periodic
// score sweeps and distribution of leads that arrived while no agents had
// capacity.
type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	scoring      *scoring.Service
	distribution *distribution.Service
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, scoringSvc *scoring.Service, distributionSvc *distribution.Service, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:       server,
		mux:          mux,
		scoring:      scoringSvc,
		distribution: distributionSvc,
		log:          log,
	}

	mux.HandleFunc(TaskRecalculateScores, w.handleRecalculateScores)
	mux.HandleFunc(TaskDistributeBatch, w.handleDistributeBatch)

	return w, nil
}

func (w *Worker) handleRecalculateScores(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRecalculateScoresPayload(task)
	if err != nil {
		return err
	}

	leadIDs := make([]uuid.UUID, 0, len(payload.LeadIDs))
	for _, raw := range payload.LeadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid lead id %q: %w", raw, err)
		}
		leadIDs = append(leadIDs, id)
	}

	result, err := w.scoring.BulkRecalculate(ctx, leadIDs)
	if err != nil {
		return err
	}

	w.log.Info("scheduled rescoring done",
		"requested", result.Requested,
		"updated", result.Updated,
		"failed", len(result.Failures),
	)
	return nil
}

func (w *Worker) handleDistributeBatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDistributeBatchPayload(task)
	if err != nil {
		return err
	}

	rule := distribution.RuleType(payload.Rule)
	if rule == "" {
		rule = distribution.RuleLoadBalanced
	}

	result, err := w.distribution.Distribute(ctx, distribution.Command{
		Rule: distribution.Rule{
			Type:         rule,
			MinLeadScore: payload.MinLeadScore,
		},
		BatchSize: payload.BatchSize,
	})
	if err != nil {
		return err
	}

	if result.NoAssignmentsPossible && result.Stats.TotalRequested > 0 {
		w.log.Warn("scheduled distribution placed nothing",
			"requested", result.Stats.TotalRequested,
			"skipped", len(result.Skipped),
		)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
