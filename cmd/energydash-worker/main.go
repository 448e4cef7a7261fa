package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"energydash/internal/amqp"
	"energydash/internal/cli"
	"energydash/internal/config"
	"energydash/internal/log"
	"energydash/internal/ports"
	"energydash/internal/publisher"
	"energydash/internal/services"
	gsheet "energydash/internal/sheets/google"
	"energydash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.FromSettings("info", "text", log.ComponentWorker).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting energydash-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	repo, err := cli.OpenSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	mirrors, closeMirrors, err := openMirrors(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeMirrors()
	if len(mirrors) == 0 {
		return errors.New("no mirror configured: set MQTT_BROKER or GOOGLE_SPREADSHEET_ID")
	}

	mirrorWorker := worker.NewMirrorWorker(repo, mirrors...)

	// the processor mirrors once at start, covering commits made while the
	// worker was down
	resync := services.NewResyncProcessor(mirrorWorker, services.ResyncProcessorConfig{
		Interval: cfg.SyncInterval,
		Timeout:  services.DefaultResyncProcessorConfig().Timeout,
	})
	if err := resync.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		if err := resync.Stop(stopCtx); err != nil {
			logger.Warn("Resync processor did not stop cleanly", log.FieldError, err)
		}
	}()

	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, relying on periodic resync", "interval", cfg.SyncInterval)
		<-ctx.Done()
		return nil
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	logger.Info("Consuming commit announcements",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return amqpClient.ConsumeCommits(ctx, mirrorWorker.HandleCommitMessage)
}

// openMirrors builds every mirror the configuration enables.
func openMirrors(ctx context.Context, cfg *config.Config, logger *log.Logger) ([]ports.SnapshotMirror, func(), error) {
	var (
		mirrors []ports.SnapshotMirror
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.MQTTEnabled() {
		pub, err := publisher.New(publisher.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect MQTT broker: %w", err)
		}
		mirrors = append(mirrors, pub)
		closers = append(closers, pub.Close)
		logger.Info("MQTT mirror enabled", log.FieldComponent, log.ComponentMQTT, "broker", cfg.MQTTBroker)
	}

	if cfg.SheetsEnabled() {
		sheets, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		mirrors = append(mirrors, sheets)
		logger.Info("Google Sheets mirror enabled", log.FieldComponent, log.ComponentSheets, "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	return mirrors, closeAll, nil
}
