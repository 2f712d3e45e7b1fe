package distribution

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	agentrepo "estate_crm_backend/internal/agents/repository"
	assignmentrepo "estate_crm_backend/internal/assignments/repository"
	"estate_crm_backend/internal/events"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"
)

// Module wires the distribution engine: repositories behind ports, the run
// locker, the service, and its lead-created subscription.
type Module struct {
	service *Service
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.DistributionConfig, log *logger.Logger) (*Module, error) {
	locker, err := buildLocker(cfg, log)
	if err != nil {
		return nil, err
	}

	svc := NewService(
		NewLeadSource(leadrepo.New(pool)),
		NewAgentDirectory(agentrepo.New(pool)),
		NewAssignmentStore(assignmentrepo.New(pool)),
		locker,
		bus,
		log,
	)
	svc.SubscribeToLeadEvents(bus)

	return &Module{service: svc}, nil
}

// Service exposes the distribution service for the scheduler worker.
func (m *Module) Service() *Service {
	return m.service
}

func buildLocker(cfg config.DistributionConfig, log *logger.Logger) (Locker, error) {
	url := cfg.GetRedisURL()
	if url == "" {
		log.Warn("REDIS_URL not set, distribution runs are serialized per process only")
		return NewLocalLocker(), nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisLocker(redis.NewClient(opts), cfg.GetDistributionLockTTL()), nil
}
