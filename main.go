package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/valvegw/journal"
	"i4.energy/across/valvegw/metrics"
	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/notify"
	"i4.energy/across/valvegw/valve"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.String("modem-address", "", "TCP address of a modem emulator, replaces the serial port")
	flag.Int("baud-rate", 9600, "Baud rate for serial communication")
	flag.Int("data-bits", 8, "Data bits per character (6-8)")
	flag.String("parity", "none", "Parity (none, even, odd)")
	flag.Int("stop-bits", 1, "Stop bits (1 or 2)")
	flag.Bool("double-speed", false, "Request double speed asynchronous mode")
	flag.String("tx-mode", "blocking", "Transmit mode (blocking, interrupt)")
	flag.String("framing", "line", "Response framing (line, sentinel)")
	flag.Duration("receive-timeout", 5*time.Second, "Timeout for a single received byte")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("journal", "data/journal.db", "SQLite journal path, empty to disable")
	flag.Int("max-response", 256, "Longest modem response line in bytes")
	flag.String("test-number", "", "Phone number receiving a test SMS on start-up")
	flag.String("mqtt-broker", "", "MQTT broker URL (e.g. tcp://localhost:1883), empty to disable")
	flag.String("mqtt-prefix", "valvegw", "MQTT topic prefix")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if err := run(config, logger); err != nil {
		logger.Error("Valve gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(config *Config, logger *slog.Logger) error {
	serialConfig, err := config.Serial()
	if err != nil {
		return err
	}
	framing, err := modem.ParseFraming(config.Framing)
	if err != nil {
		return err
	}

	reg := metrics.New()
	observers := []valve.Observer{reg}

	var store *journal.Store
	if config.JournalPath != "" {
		store, err = journal.Open(config.JournalPath, logger.With("component", "journal"))
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher *notify.Publisher
	if config.MQTTBroker != "" {
		publisher = notify.New(notify.ClientConfig{
			Broker:   config.MQTTBroker,
			ClientID: config.MQTTClientID,
			Username: config.MQTTUsername,
			Password: config.MQTTPassword,
			Prefix:   config.MQTTPrefix,
		}, logger.With("component", "mqtt"))
		observers = append(observers, publisher)
		defer publisher.Close()
	}

	bank := valve.NewBank(valve.LogActuator{Logger: logger.With("component", "valve")}, logger, observers...)

	modemConfig, err := modem.NewConfigBuilder().
		WithDialer(config.Dialer(serialConfig, logger.With("component", "serial"))).
		WithSerial(serialConfig).
		WithFraming(framing).
		WithLogger(logger.With("component", "modem")).
		WithRecorder(reg).
		WithMaxResponse(config.MaxResponse).
		Build()
	if err != nil {
		return err
	}

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("Closing modem connection")
		if err := m.Close(); err != nil {
			logger.Error("Failed to close modem", "error", err)
		}
	}()
	if err := reg.RegisterOverflows(m.Overflows); err != nil {
		return err
	}

	controllerConfig := valve.Config{
		Modem:      m,
		Bank:       bank,
		Display:    valve.LogDisplay{Logger: logger.With("component", "display")},
		Logger:     logger.With("component", "controller"),
		TestNumber: config.TestNumber,
	}
	if store != nil {
		controllerConfig.Journal = store
	}
	controller, err := valve.NewController(controllerConfig)
	if err != nil {
		return err
	}

	if publisher != nil {
		publisher.SetSender(controller)
		go func() {
			if err := publisher.Connect(ctx, bank.States()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("MQTT connection failed", "error", err)
			}
		}()
	}

	logger.Info("Starting valve gateway", "serial", config.SerialPort, "framing", framing, "tx_mode", serialConfig.TxMode)

	server := &Server{
		Logger:  logger.With("component", "server"),
		Sender:  controller,
		Bank:    bank,
		Metrics: reg.Handler(),
	}
	if store != nil {
		server.History = store
	}
	httpServer := &http.Server{
		Addr:    config.BindAddress,
		Handler: NewServer(server),
	}

	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	err = controller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("Received shutdown signal")
		err = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		logger.Error("Failed to gracefully shutdown server", "error", serr)
	}
	return err
}
