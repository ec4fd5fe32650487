package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/IBM/sarama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wri/terramatch-workflow/internal/config"
	"github.com/wri/terramatch-workflow/internal/events"
	"github.com/wri/terramatch-workflow/internal/jobs"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/pkg/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	localQueueInterval = time.Second
	riverStopTimeout   = 30 * time.Second
)

// setup reads the configuration and installs the global logger. The returned func
// flushes and restores the logger.
func setup() (*config.Config, func()) {
	cfg, err := config.New()
	if err != nil {
		zap.S().Fatalw("reading configuration", "error", err)
	}

	logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
	if err != nil {
		logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger := log.InitLog(logLvl, cfg.Service.LogFormat)
	undo := zap.ReplaceGlobals(logger)

	return cfg, func() {
		_ = logger.Sync()
		undo()
	}
}

func isPostgres(cfg *config.Config) bool {
	return cfg.Database.Type == "pgsql"
}

func newPgxPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(store.PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	// river keeps connections busy with LISTEN and job fetches
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

func newEventProducer(cfg *config.Config) (*events.EventProducer, error) {
	kafka := cfg.Service.Kafka
	if len(kafka.Brokers) == 0 {
		zap.S().Info("no kafka brokers configured, status events are written to stdout")
		return events.NewEventProducer(&events.StdoutWriter{}), nil
	}

	saramaCfg := kafka.SaramaConfig
	if saramaCfg == nil {
		saramaCfg = sarama.NewConfig()
	}
	saramaCfg.ClientID = kafka.ClientID
	if kafka.Version != (sarama.KafkaVersion{}) {
		saramaCfg.Version = kafka.Version
	}

	writer, err := events.NewKafkaWriter(kafka.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka writer: %w", err)
	}

	var opts []events.ProducerOptions
	if kafka.Topic != "" {
		opts = append(opts, events.WithOutputTopic(kafka.Topic))
	}
	zap.S().Infow("status events are written to kafka", "brokers", kafka.Brokers, "topic", kafka.Topic)
	return events.NewEventProducer(writer, opts...), nil
}

// commandQueue is the work queue of one-shot commands. On postgres jobs are inserted into river
// and worked by the running service; on sqlite they are processed before the command exits.
type commandQueue struct {
	service.WorkQueue
	local *jobs.LocalQueue
	pool  *pgxpool.Pool
}

func newCommandQueue(ctx context.Context, cfg *config.Config) (*commandQueue, error) {
	if !isPostgres(cfg) {
		local := jobs.NewLocalQueue()
		return &commandQueue{WorkQueue: local, local: local}, nil
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := jobs.NewInsertOnlyClient(pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}
	return &commandQueue{WorkQueue: client, pool: pool}, nil
}

// Close flushes the local queue into a processor built on s, then releases the pool.
func (q *commandQueue) Close(ctx context.Context, s store.Store) {
	if q.local != nil {
		processor := service.NewScheduledJobProcessor(s, q.local, service.NewReportGenerationService(s))
		// processed jobs may enqueue emails, which the second flush logs
		q.local.Flush(ctx, processor)
		q.local.Flush(ctx, processor)
	}
	if q.pool != nil {
		q.pool.Close()
	}
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
