package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/atmena/internal/api"
	"codeberg.org/mutker/atmena/internal/config"
	"codeberg.org/mutker/atmena/internal/ingest"
	"codeberg.org/mutker/atmena/internal/logger"
	"codeberg.org/mutker/atmena/internal/notify"
	"codeberg.org/mutker/atmena/internal/pid"
	"codeberg.org/mutker/atmena/internal/storage"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	config.RegisterFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		return err
	}
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(cfg.PIDFile); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	store, err := storage.NewRepository(storage.Config{DBPath: cfg.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub(cfg.Stream.Queue)
	publishers := notify.Multi{hub}

	if cfg.MQTT.EmbeddedListen != "" {
		broker, err := notify.StartBroker(cfg.MQTT.EmbeddedListen)
		if err != nil {
			return err
		}
		defer func() {
			if err := broker.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to stop MQTT broker")
			}
		}()
		// Readings go to the embedded broker.
		cfg.MQTT.Enabled = true
		cfg.MQTT.Broker = broker.Addr()
	}

	if cfg.MQTT.Enabled {
		mqtt, err := notify.DialMQTT(ctx, notify.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			ClientID:    cfg.MQTT.ClientID,
			QoS:         cfg.MQTT.QoS,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := mqtt.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to disconnect from MQTT broker")
			}
		}()
		publishers = append(publishers, mqtt)
		logger.Info().Str("broker", cfg.MQTT.Broker).Msg("Publishing to MQTT")
	}

	pipeline := ingest.New(store, publishers)
	server := api.NewServer(api.Config{
		DefaultLimit: cfg.DefaultLimit,
		CORSOrigins:  cfg.CORSOrigins,
	}, store, pipeline, hub)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Listen).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Received termination signal.")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	server.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down HTTP server")
	}
	pipeline.Wait()

	logger.Info().Msg("Exiting...")
	return nil
}
