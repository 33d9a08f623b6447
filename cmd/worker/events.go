package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garageops/workshop-notify/internal/config"
	"github.com/garageops/workshop-notify/internal/db"
	"github.com/garageops/workshop-notify/internal/kafka"
	"github.com/garageops/workshop-notify/internal/logger"
	"github.com/garageops/workshop-notify/internal/metrics"
	"github.com/garageops/workshop-notify/internal/provider"
	"github.com/garageops/workshop-notify/internal/recipient"
	"github.com/garageops/workshop-notify/internal/repository"
	"github.com/garageops/workshop-notify/internal/service/dispatch"
	"github.com/garageops/workshop-notify/internal/settings"
	"github.com/garageops/workshop-notify/internal/template"
	"github.com/garageops/workshop-notify/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Consume workflow events from Kafka and dispatch notifications",
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) stores
	mysqlDB, err := db.NewMySQL(cfg.MySQL)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer mysqlDB.Close()

	chDB, err := db.NewClickHouse(cfg.ClickHouse)
	if err != nil {
		return fmt.Errorf("clickhouse connect: %w", err)
	}
	defer func() { _ = chDB.Close() }()

	// 3) dispatch pipeline
	profilesRepo := repository.NewProfilesRepository(mysqlDB)

	ttl := cfg.Dispatch.CacheTTL
	if ttl <= 0 {
		ttl = settings.DefaultTTL
	}
	svc := dispatch.NewService(
		settings.NewAdapter(repository.NewSettingsRepository(mysqlDB), ttl),
		template.NewAdapter(repository.NewTemplatesRepository(mysqlDB), ttl),
		recipient.NewResolver(repository.NewPreferencesRepository(mysqlDB), profilesRepo),
		profilesRepo,
		provider.NewHTTPSender(cfg.Relay.BaseURL),
		repository.NewDispatchLogRepository(chDB),
	)
	svc.Tune(cfg.Dispatch.MaxInFlight, cfg.Dispatch.SendTimeout)

	// 4) kafka consumer
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = "workshop.events"
	}
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "wshop-notify"
	}

	consumer := kafka.NewConsumer(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewEvents(consumer, svc)
	if cfg.Dispatch.Processors > 0 {
		w.Processors = cfg.Dispatch.Processors
	}

	// 5) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.Info("event worker started",
		zap.String("topic", topic), zap.String("group", groupID),
		zap.Int("processors", w.Processors))

	return w.Run(ctx)
}
