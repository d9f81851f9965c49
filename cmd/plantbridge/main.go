// plantbridge ingests plant-sensor telemetry from BLE gateways.
//
// It subscribes to the gateways' MQTT topic, keeps only messages from plant
// sensors, resolves each sensor's identity and current owner, and stores one
// reading per message. Unknown sensors are auto-registered under a fallback
// owner when one is configured.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/plantbridge/internal/api"
	"github.com/nerrad567/plantbridge/internal/infrastructure/config"
	"github.com/nerrad567/plantbridge/internal/infrastructure/database"
	"github.com/nerrad567/plantbridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/plantbridge/internal/infrastructure/logging"
	"github.com/nerrad567/plantbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/plantbridge/internal/ingest"
	"github.com/nerrad567/plantbridge/internal/reading"
	"github.com/nerrad567/plantbridge/internal/sensor"
	"github.com/nerrad567/plantbridge/internal/store/postgres"
	"github.com/nerrad567/plantbridge/internal/telemetry"
	_ "github.com/nerrad567/plantbridge/migrations"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"

	// startupCheckTimeout bounds the health check run before subscribing.
	startupCheckTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the bridge together and blocks until ctx is cancelled.
// Any error returned happened during startup.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting plantbridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	configPath, explicit := getConfigPath()
	cfg, err := config.Load(configPath, !explicit)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"site", cfg.Site.ID,
		"database_driver", cfg.Database.Driver,
		"auto_register", cfg.AutoRegisterEnabled(),
	)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing store")
		if closeErr := st.close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()
	log.Info("store ready", "driver", cfg.Database.Driver)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	components := []api.Component{
		{Name: "database", Checker: st.health},
		{Name: "mqtt", Checker: mqttClient},
	}

	writer := reading.NewWriter(st.readings)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		writer.SetMirror(reading.NewPointMirror(influxClient))
		components = append(components, api.Component{Name: "influxdb", Checker: influxClient})
		log.Info("InfluxDB mirror enabled",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := ingest.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	resolver := sensor.NewResolver(st.sensors, cfg.Ingest.FallbackOwnerID)
	resolver.SetLogger(log.With("component", "resolver"))

	pipeline := ingest.NewPipeline(telemetry.NewClassifier(cfg.Ingest.DefaultModel), resolver, writer)
	pipeline.SetLogger(log.With("component", "ingest"))
	pipeline.SetMetrics(metrics)

	if cfg.API.Enabled {
		server, component, err := startAPI(ctx, api.Deps{
			Config:     cfg.API,
			Logger:     log.With("component", "api"),
			Components: components,
			Gatherer:   registry,
			DBStats:    st.stats,
			Version:    version,
		})
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		components = append(components, component)
	}

	if err := healthCheck(ctx, components); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if err := mqttClient.Subscribe(cfg.MQTT.Topic, byte(cfg.MQTT.QoS), pipeline.Handler(ctx)); err != nil {
		return fmt.Errorf("subscribing to %s: %w", cfg.MQTT.Topic, err)
	}
	log.Info("ingesting", "topic", cfg.MQTT.Topic, "qos", cfg.MQTT.QoS,
		"subscriptions", mqttClient.SubscriptionCount())

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if mqttClient.HasSubscription(cfg.MQTT.Topic) {
		if err := mqttClient.Unsubscribe(cfg.MQTT.Topic); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
			log.Warn("unsubscribe failed", "topic", cfg.MQTT.Topic, "error", err)
		}
	}

	log.Info("plantbridge stopped")
	return nil
}

// getConfigPath returns the configuration file path and whether it was set
// explicitly through PLANTBRIDGE_CONFIG.
func getConfigPath() (string, bool) {
	if path := os.Getenv("PLANTBRIDGE_CONFIG"); path != "" {
		return path, true
	}
	return defaultConfigPath, false
}

// store is the relational backend selected by database.driver.
type store struct {
	sensors  sensor.Repository
	readings reading.Repository
	health   api.HealthChecker
	stats    func() sql.DBStats
	close    func() error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return &store{
			sensors:  pg.Sensors(),
			readings: pg.Readings(),
			health:   pg,
			stats:    pg.Stats,
			close:    pg.Close,
		}, nil

	default:
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return &store{
			sensors:  sensor.NewSQLiteRepository(db.DB),
			readings: reading.NewSQLiteRepository(db.DB),
			health:   db,
			stats:    db.Stats,
			close:    db.Close,
		}, nil
	}
}

// startAPI starts the status server and returns it as a startup health
// component. The server's own /health endpoint only reports deps.Components.
func startAPI(ctx context.Context, deps api.Deps) (*api.Server, api.Component, error) {
	server, err := api.New(deps)
	if err != nil {
		return nil, api.Component{}, fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return nil, api.Component{}, fmt.Errorf("starting API server: %w", err)
	}
	return server, api.Component{Name: "api", Checker: server}, nil
}

// healthCheck runs every component check once, returning the first failure.
func healthCheck(ctx context.Context, components []api.Component) error {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	for _, c := range components {
		if err := c.Checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	return nil
}
