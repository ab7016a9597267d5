package di

import (
	"fmt"

	domrepo "AquaWatch/internal/domain/repository"
	domservice "AquaWatch/internal/domain/service"
	"AquaWatch/internal/handler/api"
	"AquaWatch/internal/hub"
	mid "AquaWatch/internal/middleware"
	"AquaWatch/internal/model"
	internalrepo "AquaWatch/internal/repository"
	"AquaWatch/internal/services/decision"
	"AquaWatch/internal/services/inference"
	"AquaWatch/internal/usecase"
	pkgcache "AquaWatch/pkg/cache"
	pkgch "AquaWatch/pkg/clickhouse"
	"AquaWatch/pkg/config"
	xhttp "AquaWatch/pkg/http"
	pkgkafka "AquaWatch/pkg/kafka"
	applogger "AquaWatch/pkg/logger"
	"AquaWatch/pkg/metrics"
	"AquaWatch/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideModelCache creates the lazy model artifact cache.
func ProvideModelCache(cfg *config.Config) *model.Cache {
	return model.NewCache(cfg.Models.Dir)
}

// ProvideEnsemble creates the inference ensemble.
func ProvideEnsemble(cache *model.Cache, log *applogger.Logger) *inference.Ensemble {
	return inference.New(cache, log)
}

// ProvideReasoner creates the decision explanation renderer.
func ProvideReasoner() domservice.Reasoner {
	return decision.NewTemplateReasoner()
}

// ProvideEngine creates the tiered decision engine.
func ProvideEngine(
	cfg *config.Config,
	cache *model.Cache,
	reasoner domservice.Reasoner,
	log *applogger.Logger,
	m domrepo.Metrics,
) *decision.Engine {
	return decision.NewEngine(cfg.Models.ScorerTier, cache, reasoner, log, m)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideHistoryStore creates the ClickHouse-backed history log.
func ProvideHistoryStore(ch *pkgch.Client, log *applogger.Logger) (domrepo.HistoryStore, error) {
	return internalrepo.NewCHHistoryStore(ch, log)
}

// ProvideCacheService creates the shared cache: Redis when configured, the
// in-process cache otherwise.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideDecisionCache creates the latest-decision store.
func ProvideDecisionCache(c pkgcache.Service, log *applogger.Logger) domrepo.DecisionCache {
	return internalrepo.NewCachedDecisionStore(c, log)
}

// ProvideEventPublisher creates the decision event exporter: Kafka when
// enabled, otherwise a no-op.
func ProvideEventPublisher(cfg *config.Config) (domrepo.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopEventPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventTopic), nil
}

// ProvideHub creates the websocket fan-out hub.
func ProvideHub(cfg *config.Config, log *applogger.Logger, m domrepo.Metrics) *hub.Hub {
	return hub.NewHub(hub.Options{
		SendBuffer:       cfg.Hub.SendBuffer,
		HeartbeatTimeout: cfg.Hub.HeartbeatTimeout,
		ConnectionLog:    cfg.Hub.ConnectionLog,
	}, log, m)
}

// ProvideSampleProcessor creates the core processing use case.
func ProvideSampleProcessor(
	ensemble *inference.Ensemble,
	engine *decision.Engine,
	history domrepo.HistoryStore,
	decisions domrepo.DecisionCache,
	h *hub.Hub,
	events domrepo.EventPublisher,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.SampleProcessor {
	return usecase.NewSampleProcessor(ensemble, engine, history, decisions, h, events, m, log)
}

// ProvideIngestPipeline creates the throttling buffer in front of the
// processor.
func ProvideIngestPipeline(proc *usecase.SampleProcessor, m domrepo.Metrics, cfg *config.Config) *mid.IngestPipeline {
	return mid.NewIngestPipeline(proc, m,
		mid.WithMaxRPS(cfg.Ingest.MaxPerSecond),
		mid.WithBufferSize(cfg.Ingest.BufferSize),
	)
}

// ProvideSimulator creates the sensor simulator, or nil when disabled.
func ProvideSimulator(cfg *config.Config, pipeline *mid.IngestPipeline, log *applogger.Logger) *usecase.Simulator {
	if !cfg.Simulator.Enabled {
		return nil
	}
	return usecase.NewSimulator(usecase.SimulatorOptions{
		Ponds:       cfg.Simulator.Ponds,
		IntervalMin: cfg.Simulator.IntervalMin,
		IntervalMax: cfg.Simulator.IntervalMax,
		Mode:        cfg.Simulator.Mode,
	}, pipeline, log)
}

// ProvideKafkaConsumer creates the sample-topic consumer, or nil when Kafka
// ingestion is disabled.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.SampleTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSamplesHandler registers the handler for the sample topic, or nil
// when Kafka ingestion is disabled.
func ProvideSamplesHandler(cfg *config.Config, pipeline *mid.IngestPipeline, log *applogger.Logger) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled || cfg.Kafka.SampleTopic == "" {
		return nil
	}
	return usecase.NewKafkaSamplesHandler(cfg.Kafka.SampleTopic, pipeline, log)
}

// ProvidePrioritizeUseCase creates the cross-pond priority use case.
func ProvidePrioritizeUseCase(decisions domrepo.DecisionCache) *usecase.PrioritizeUseCase {
	return usecase.NewPrioritizeUseCase(decisions)
}

// ProvideHTTPHandler creates the dashboard HTTP handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	processor *usecase.SampleProcessor,
	prioritize *usecase.PrioritizeUseCase,
	history domrepo.HistoryStore,
	h *hub.Hub,
) xhttp.Handler {
	return api.NewDashboardHandler(log, processor, prioritize, history, h)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *mid.IngestPipeline,
	simulator *usecase.Simulator,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	events domrepo.EventPublisher,
	history domrepo.HistoryStore,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, pipeline, simulator, consumer, kh, events, history, handler)
}
