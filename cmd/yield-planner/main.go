package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/iwvelando/yield-planner/internal/config"
	"github.com/iwvelando/yield-planner/internal/engine"
	"github.com/iwvelando/yield-planner/internal/server"
	"github.com/iwvelando/yield-planner/internal/store"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"github.com/iwvelando/yield-planner/pkg/output"
	"github.com/iwvelando/yield-planner/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	catalogStorePath := flag.String("catalog-store", "", "path to a persisted catalog of tariffs, boosters and pricing controls")
	saveCatalog := flag.Bool("save-catalog", false, "write the configuration's catalog to -catalog-store after computing")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a single computation")
	serverConfig := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	maxUploadSize := flag.String("max-upload-size", "", "maximum request body size override for -serve (e.g. 512K, 2M)")
	flag.Parse()

	if *serve {
		runServer(*serverConfig, *logLevel, *catalogStorePath, *maxUploadSize)
		return
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	var catalogStore *store.FileStore
	if *catalogStorePath != "" {
		catalogStore = store.NewFileStore(*catalogStorePath)
		if !*saveCatalog && catalogStore.Exists() {
			record, err := catalogStore.Load()
			if err != nil {
				logger.Fatal("failed to load catalog store",
					zap.String("op", "main"),
					zap.String("path", catalogStore.Path()),
					zap.Error(err),
				)
			}
			conf.Catalog = record.Apply(conf.Catalog)
			logger.Info("using stored catalog",
				zap.String("op", "main"),
				zap.String("path", catalogStore.Path()),
				zap.Int("tariffs", len(record.Tariffs)),
				zap.Int("boosters", len(record.Boosters)),
			)
		}
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	result := engine.NewEngine(logger).Compute(conf.State())

	if *saveCatalog {
		if catalogStore == nil {
			logger.Fatal("-save-catalog requires -catalog-store", zap.String("op", "main"))
		}
		if err := catalogStore.Save(store.FromCatalog(conf.Catalog)); err != nil {
			logger.Fatal("failed to save catalog store",
				zap.String("op", "main"),
				zap.String("path", catalogStore.Path()),
				zap.Error(err),
			)
		}
	}

	if err := output.Render(os.Stdout, outputFormat, result); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

func runServer(path, logLevel, catalogStorePath, maxUploadSize string) {
	cfg, err := server.LoadConfig(path)
	if err != nil {
		fmt.Printf("{\"op\": \"main.runServer\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", path, err)
		os.Exit(1)
	}
	if maxUploadSize != "" {
		size, err := server.ParseSize(maxUploadSize)
		if err != nil {
			fmt.Printf("{\"op\": \"main.runServer\", \"level\": \"fatal\", \"msg\": \"invalid -max-upload-size\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := initializeLogger(cfg.Logging, logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main.runServer\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if catalogStorePath == "" {
		catalogStorePath = cfg.CatalogStore
	}
	var catalogStore *store.FileStore
	if catalogStorePath != "" {
		catalogStore = store.NewFileStore(catalogStorePath)
	}

	srv := &http.Server{
		Addr:        cfg.Address,
		Handler:     server.NewHandler(logger, cfg.UploadSizeBytes(), version, catalogStore),
		ReadTimeout: cfg.ReadTimeoutDuration(),
	}

	logger.Info("starting server",
		zap.String("op", "main.runServer"),
		zap.String("address", cfg.Address),
		zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
		zap.String("catalogStore", catalogStorePath),
		zap.String("version", version),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}
}
