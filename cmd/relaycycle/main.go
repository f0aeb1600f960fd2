// Relay Cycle Controller
//
// relaycycle drives a bank of relays through user-defined repeating
// timelines ("cycles"). Definitions and running state live in SQLite so
// cycles resume in phase after a restart. Relay changes are pushed to the
// GPIO lines, WebSocket clients, MQTT and optionally InfluxDB.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	_ "github.com/nerrad567/relaycycle/migrations"

	"github.com/nerrad567/relaycycle/internal/api"
	"github.com/nerrad567/relaycycle/internal/commands"
	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/hardware"
	"github.com/nerrad567/relaycycle/internal/infrastructure/config"
	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
	"github.com/nerrad567/relaycycle/internal/infrastructure/influxdb"
	"github.com/nerrad567/relaycycle/internal/infrastructure/logging"
	"github.com/nerrad567/relaycycle/internal/infrastructure/mqtt"
	"github.com/nerrad567/relaycycle/internal/maintenance"
	"github.com/nerrad567/relaycycle/internal/notify"
	"github.com/nerrad567/relaycycle/internal/relay"
	"github.com/nerrad567/relaycycle/internal/scheduler"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds the final snapshot and queue drain.
const shutdownTimeout = 10 * time.Second

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for `subject` and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	if *issueFor != "" {
		if err := issueToken(*issueFor, *tokenTTL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Cancel on Ctrl+C and SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// issueToken prints a token signed with the configured JWT secret.
func issueToken(subject string, ttl time.Duration) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Security.JWT.Secret == "" {
		return errors.New("security.jwt.secret is empty; authentication is disabled")
	}
	token, err := api.IssueToken(cfg.Security.JWT.Secret, subject, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// run is the actual application logic, separated from main for testability.
// Components are started in dependency order and torn down in reverse by
// the deferred calls.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting relaycycle",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Registries
	relayRegistry := relay.NewRegistry(relay.NewSQLiteRepository(db.DB))
	relayRegistry.SetLogger(log.Component("relay"))
	if loadErr := relayRegistry.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading relays: %w", loadErr)
	}

	cycleRepo := cycle.NewSQLiteRepository(db.DB)
	cycleRegistry := cycle.NewRegistry(cycleRepo)
	cycleRegistry.SetLogger(log.Component("cycle"))
	if loadErr := cycleRegistry.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading cycles: %w", loadErr)
	}
	log.Info("registries loaded",
		"relays", relayRegistry.Len(),
		"cycles", len(cycleRegistry.List()),
	)

	historyRepo := relay.NewSQLiteHistoryRepository(db.DB)

	// Hardware
	output, err := openOutput(cfg.Hardware.GPIO, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := output.Close(); closeErr != nil {
			log.Error("error closing relay outputs", "error", closeErr)
		}
	}()
	if syncErr := output.Sync(relayRegistry.List()); syncErr != nil {
		log.Warn("initial output sync incomplete", "error", syncErr)
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log.Component("mqtt"))
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
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
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Notification fan-out to observers. Best-effort; the hardware output
	// is driven separately by the Actuator below.
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)

	sinks := []notify.Sink{
		notify.HistorySink{Repo: historyRepo},
		notify.HubSink{Hub: hub},
	}
	if mqttClient != nil {
		sinks = append(sinks, notify.MQTTSink{Publisher: mqttClient, Topics: mqttClient.Topics()})
	}
	if influxClient != nil {
		sinks = append(sinks, notify.InfluxSink{Writer: influxClient})
	}
	dispatcher := notify.NewDispatcher(cfg.Scheduler.NotifyBuffer, log.Component("notify"), sinks...)
	// Sinks keep working after the signal so the final changes land.
	dispatcher.Start(context.WithoutCancel(ctx))

	// Scheduler
	sched := scheduler.New(relayRegistry, cycleRegistry, scheduler.Options{
		Notifier:    notify.NewActuator(output, dispatcher, log.Component("hardware")),
		Logger:      log.Component("scheduler"),
		SuspendPoll: cfg.SuspendPollInterval(),
	})

	states, err := cycleRepo.LoadRunning(ctx)
	if err != nil {
		sched.Close()
		dispatcher.Close()
		return fmt.Errorf("loading running cycles: %w", err)
	}
	restored := sched.Restore(states)
	log.Info("running cycles restored", "persisted", len(states), "restored", restored)

	// Inbound MQTT commands
	if mqttClient != nil {
		handler := commands.NewHandler(sched, mqttClient.Topics(), log.Component("commands"))
		if subErr := handler.Subscribe(mqttClient, byte(cfg.MQTT.QoS)); subErr != nil {
			log.Warn("MQTT command subscription failed", "error", subErr)
		}
	}

	// Periodic snapshot and history pruning
	maint, err := maintenance.New(maintenance.Config{
		SnapshotSchedule: cfg.Scheduler.SnapshotSchedule,
		PruneSchedule:    cfg.Scheduler.HistoryPruneSchedule,
		Retention:        time.Duration(cfg.Scheduler.HistoryRetentionDays) * 24 * time.Hour,
	}, maintenance.Deps{
		Scheduler: sched,
		Running:   cycleRepo,
		Relays:    relayRegistry,
		History:   historyRepo,
	}, log.Component("maintenance"))
	if err != nil {
		sched.Close()
		dispatcher.Close()
		return fmt.Errorf("configuring maintenance jobs: %w", err)
	}
	maint.Start()

	// API
	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log.Component("api"),
		Scheduler: sched,
		Relays:    relayRegistry,
		History:   historyRepo,
		DB:        db,
		MQTT:      mqttClient,
		Notify:    dispatcher,
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		shutdown(log, maint, sched, dispatcher, nil)
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		shutdown(log, maint, sched, dispatcher, nil)
		return fmt.Errorf("starting API server: %w", startErr)
	}

	notifySystemd(log, daemon.SdNotifyReady)
	go watchdog(ctx, log)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	notifySystemd(log, daemon.SdNotifyStopping)
	shutdown(log, maint, sched, dispatcher, apiServer)

	log.Info("relaycycle stopped")
	return nil
}

// shutdown stops producers before consumers: no new requests or jobs, no
// more timer callbacks, one last snapshot, then the notification queue is
// drained. Infrastructure clients are closed by run's deferred calls.
func shutdown(log *logging.Logger, maint *maintenance.Service, sched *scheduler.Scheduler, dispatcher *notify.Dispatcher, apiServer *api.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if apiServer != nil {
		if err := apiServer.Close(); err != nil {
			log.Error("error stopping API server", "error", err)
		}
	}
	maint.Stop(ctx)
	sched.Close()

	if err := maint.SaveSnapshot(ctx); err != nil {
		log.Error("final snapshot failed", "error", err)
	} else {
		log.Info("final snapshot saved")
	}

	dispatcher.Close()
	if dropped := dispatcher.Dropped(); dropped > 0 {
		log.Warn("notifications dropped during run", "count", dropped)
	}
}

// openOutput selects the GPIO driver, or an in-memory driver when GPIO is
// disabled (development machines, CI).
func openOutput(cfg config.GPIOConfig, log *logging.Logger) (*hardware.Output, error) {
	outLog := log.Component("hardware")
	if !cfg.Enabled {
		log.Info("GPIO disabled, relay outputs are simulated")
		return hardware.NewOutput(hardware.NewFakeDriver(), outLog), nil
	}
	driver, err := hardware.NewGPIODriver(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("opening GPIO chip %s: %w", cfg.Chip, err)
	}
	log.Info("GPIO ready", "chip", cfg.Chip)
	return hardware.NewOutput(driver, outLog), nil
}

// notifySystemd sends a state notification when running under systemd.
func notifySystemd(log *logging.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warn("systemd notification failed", "state", state, "error", err)
		return
	}
	if sent {
		log.Debug("systemd notified", "state", state)
	}
}

// watchdog pings the systemd watchdog at half its interval. It returns
// immediately when the unit has no WatchdogSec.
func watchdog(ctx context.Context, log *logging.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			notifySystemd(log, daemon.SdNotifyWatchdog)
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses RELAYCYCLE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RELAYCYCLE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
