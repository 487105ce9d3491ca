package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homenode/internal/automation"
	"homenode/internal/handlers"
	"homenode/internal/hardware"
	"homenode/internal/logger"
	"homenode/internal/models"
	"homenode/internal/relays"
	"homenode/internal/repository"
	"homenode/internal/repository/db"
	"homenode/internal/rules"
	"homenode/internal/sensors"
	"homenode/internal/server"
	"homenode/internal/service"
	"homenode/internal/telemetry"

	"github.com/spf13/viper"
)

const defaultTick = 250 * time.Millisecond

func main() {
	cfgErr := loadConfig()
	log := logger.Get(viper.GetString("log_level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)

	chip := openGPIO(log)
	defer func() { _ = chip.Close() }()

	board := loadBoard(log)
	cache := buildSensors(chip, board, log)

	engine := rules.New(cache, viper.GetStringSlice("rules.denied_tokens"))

	store := repository.NewFileRelayStore(relayConfigPath())
	mgr := relays.NewManager(chip, store, board, log)
	loadRelays(mgr, store, log)
	defer mgr.Close()

	pub := openTelemetry(log)
	defer func() { _ = pub.Close() }()

	loop := automation.NewLoop(cache, mgr, engine, repos.EventRepo, pub, log)

	services := service.NewService(service.Deps{
		Relays:     mgr,
		Sensors:    cache,
		Rules:      engine,
		Loop:       loop,
		Board:      board,
		Repos:      repos,
		Telemetry:  pub,
		Log:        log,
		StartedAt:  time.Now(),
		SigningKey: viper.GetString("auth.signing_key"),
	})

	restart := make(chan struct{}, 1)
	apiHandler := handlers.NewHandler(services, log, handlers.Options{
		WWWDir:      viper.GetString("www.dir"),
		AuthEnabled: viper.GetBool("auth.enabled"),
		Restart:     restart,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx, tickInterval())
	startStatusLED(ctx, chip, loop, log)

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(cancel, srv, restart, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.SetDefault("log_level", logger.InfoLevel)
	viper.SetDefault("automation.tick", defaultTick)
	viper.SetDefault("gpio.fake", true)
	viper.SetDefault("www.dir", "www")
	return viper.ReadInConfig()
}

func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "homenode.db")
		dbPath = "homenode.db"
	}
	return db.InitDB(dbPath)
}

// openGPIO opens the configured character device, or the in-memory fake
// for development machines. A chip that fails to open degrades to the
// fake with a warning; the controller still serves its API.
func openGPIO(log *logger.Logger) hardware.Chip {
	if viper.GetBool("gpio.fake") {
		log.Infow("using fake gpio chip")
		return hardware.NewFakeChip()
	}
	name := viper.GetString("gpio.chip")
	if name == "" {
		name = "gpiochip0"
	}
	chip, err := hardware.OpenChip(name)
	if err != nil {
		log.Warnw("gpio chip unavailable, falling back to fake", "chip", name, "err", err)
		return hardware.NewFakeChip()
	}
	return chip
}

func loadBoard(log *logger.Logger) *models.BoardProfile {
	path := viper.GetString("board.path")
	if path == "" {
		path = "configs/board.json"
	}
	board, err := repository.LoadBoardProfile(path)
	if err != nil {
		log.Warnw("board profile unavailable, pin validation disabled", "path", path, "err", err)
		return nil
	}
	return board
}

func relayConfigPath() string {
	if p := viper.GetString("relays.path"); p != "" {
		return p
	}
	return "configs/relays.json"
}

// loadRelays installs the persisted relay configuration. A corrupt or
// missing file starts the controller with an empty configuration.
func loadRelays(mgr *relays.Manager, store *repository.FileRelayStore, log *logger.Logger) {
	list, err := store.Load()
	if err != nil {
		log.Warnw("relay config unreadable, starting with empty configuration", "err", err)
	}
	if err := mgr.Load(list); err != nil {
		log.Warnw("relay config rejected, starting with empty configuration", "err", err)
		_ = mgr.Load([]models.Relay{})
	}
}

// buildSensors wires the configured sensor hardware into the throttled
// cache. Simulated climate and light sources keep the dashboard alive on
// boards without the sensors attached.
func buildSensors(chip hardware.Chip, board *models.BoardProfile, log *logger.Logger) *sensors.Cache {
	var climate sensors.ClimateReader
	var light sensors.LightReader
	if viper.GetBool("sensors.simulate") {
		climate = &sensors.SimClimate{BaseTempC: 21, BaseHumidity: 45}
		light = &sensors.SimLight{Base: 500}
	}

	sw := openSwitch(chip, viper.GetInt("sensors.switch_pin"), "switch", log)
	reset := openSwitch(chip, viper.GetInt("sensors.reset_pin"), "reset switch", log)

	return sensors.New(climate, light, sw, reset, sensors.DefaultIntervals(), nil)
}

func openSwitch(chip hardware.Chip, pin int, name string, log *logger.Logger) sensors.SwitchReader {
	if pin <= 0 {
		return nil
	}
	line, err := chip.RequestInput(pin)
	if err != nil {
		log.Warnw("switch input unavailable", "sensor", name, "pin", pin, "err", err)
		return nil
	}
	return &sensors.LineSwitch{Line: line}
}

func openTelemetry(log *logger.Logger) telemetry.Publisher {
	broker := viper.GetString("mqtt.broker")
	if broker == "" {
		return telemetry.Noop{}
	}
	clientID := viper.GetString("mqtt.client_id")
	if clientID == "" {
		clientID = "homenode"
	}
	pub, err := telemetry.NewMQTTPublisher(broker, clientID)
	if err != nil {
		log.Warnw("mqtt broker unavailable, telemetry disabled", "broker", broker, "err", err)
		return telemetry.Noop{}
	}
	log.Infow("mqtt telemetry enabled", "broker", broker)
	return pub
}

// startStatusLED runs the RGB status animation when LED pins are
// configured. Missing pins simply stay dark.
func startStatusLED(ctx context.Context, chip hardware.Chip, loop *automation.Loop, log *logger.Logger) {
	red := openLEDLine(chip, viper.GetInt("led.red_pin"), log)
	green := openLEDLine(chip, viper.GetInt("led.green_pin"), log)
	blue := openLEDLine(chip, viper.GetInt("led.blue_pin"), log)
	if red == nil && green == nil && blue == nil {
		return
	}
	led := automation.NewLED(red, green, blue, loop.Health)
	go led.Run(ctx)
}

func openLEDLine(chip hardware.Chip, pin int, log *logger.Logger) hardware.OutputLine {
	if pin <= 0 {
		return nil
	}
	line, err := chip.RequestOutput(pin, 0)
	if err != nil {
		log.Warnw("led line unavailable", "pin", pin, "err", err)
		return nil
	}
	return line
}

func tickInterval() time.Duration {
	if d := viper.GetDuration("automation.tick"); d > 0 {
		return d
	}
	return defaultTick
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until a termination signal or an API restart
// request, then performs graceful shutdown. Restart exits cleanly and
// relies on the process supervisor to bring the controller back up.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, restart <-chan struct{}, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Infow("shutting down server...")
	case <-restart:
		log.Infow("restart requested, shutting down for supervisor...")
	}

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
