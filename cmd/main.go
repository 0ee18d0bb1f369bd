package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-swap-engine/config"
	"github.com/Cogwheel-Validator/spectra-swap-engine/exchanges/crosschain"
	"github.com/Cogwheel-Validator/spectra-swap-engine/exchanges/poolswap"
	"github.com/Cogwheel-Validator/spectra-swap-engine/execution"
	"github.com/Cogwheel-Validator/spectra-swap-engine/fees"
	"github.com/Cogwheel-Validator/spectra-swap-engine/pricing"
	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
	"github.com/Cogwheel-Validator/spectra-swap-engine/rpc"
)

var log zerolog.Logger

func init() {
	// Initialize zerolog with console writer
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the rest of the service
	rpc.SetLogger(log)
	router.SetLogger(log)
	execution.SetLogger(log)
	poolswap.SetLogger(log)
	crosschain.SetLogger(log)
}

func main() {
	configPath := flag.String("config", "", "config file for the server, env vars are used when empty")
	sender := flag.String("sender", "", "account the engine derives beneficiary addresses from")
	flag.Parse()

	var serverConfigPath *string
	if *configPath != "" {
		serverConfigPath = configPath
	}

	log.Info().Msg("Starting Spectra Swap Engine")

	cfg, err := config.LoadServerConfig(serverConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load server config")
	}

	registry, err := loadRegistry(cfg.RegistryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load registry")
	}
	log.Info().Int("chains", len(registry.Chains())).Msg("Loaded registry")

	tradeClient, err := poolswap.NewHTTPTradeClient(cfg.TradeAPIURL, 10*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create trade client")
	}
	transferClient, err := crosschain.NewHTTPTransferClient(cfg.TransferAPIURL, 10*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transfer client")
	}

	edges, err := registry.BuildEdges(tradeClient, transferClient, *sender)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build edge set")
	}
	log.Info().Int("edges", len(edges)).Msg("Edge set built")

	graph := router.NewGraph(edges)

	pathfinder := router.NewPathfinder(
		graph,
		execution.ChainTimeEstimator{BlockTimes: registry.BlockTimes()},
		registry,
		registry,
		buildPathfinderConfig(cfg),
	).WithFeeEstimator(execution.FeeEstimator{})

	var prices fees.PriceStoring
	if cfg.PriceAPIURL != "" {
		priceClient, err := pricing.NewClient(cfg.PriceAPIURL, "usd", time.Minute)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create price client")
		}
		prices = priceClient
	}

	engine := rpc.NewEngineServer(pathfinder, graph, prices, registry, "usd")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := rpc.NewServer(ctx, buildServerConfig(cfg), engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API server")
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// loadRegistry loads the registry file, pulling it from a remote git
// source first when the configured path is not a local file.
func loadRegistry(registryPath string) (*config.Registry, error) {
	if !strings.Contains(registryPath, "://") && !strings.HasPrefix(registryPath, "github.com/") {
		return config.LoadRegistry(registryPath)
	}

	dst := filepath.Join(os.TempDir(), "swap-engine-registry")
	log.Info().Str("source", registryPath).Str("destination", dst).Msg("Downloading registry")
	if err := config.DownloadRegistry(registryPath, dst); err != nil {
		return nil, err
	}
	return config.LoadRegistry(filepath.Join(dst, "registry.toml"))
}

func buildPathfinderConfig(cfg *config.ServerConfig) router.PathfinderConfig {
	pfCfg := router.PathfinderConfig{
		MaxHops:       cfg.MaxHops,
		MaxQuotePaths: cfg.MaxQuotePaths,
		TieBreak:      router.TieBreak(cfg.TieBreak),
	}
	if cfg.CostCutoffMultiplier != "" {
		multiplier, err := decimal.NewFromString(cfg.CostCutoffMultiplier)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid cost_cutoff_multiplier")
		}
		pfCfg.CostCutoffMultiplier = multiplier
	}
	return pfCfg
}

// buildServerConfig converts the loaded ServerConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.ServerConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
	}

	// Set rate limiting if configured
	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	// Set OpenTelemetry configuration if any telemetry is enabled
	if cfg.EnableTracing || cfg.EnableMetrics || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:    defaultString(cfg.ServiceName, "spectra-swap-engine"),
			ServiceVersion: defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:    defaultString(cfg.Environment, "development"),
			EnableTracing:  cfg.EnableTracing,
			UseOTLPTraces:  cfg.UseOTLPTraces,
			OTLPTracesURL:  cfg.OTLPTracesURL,
			EnableMetrics:  cfg.EnableMetrics,
			UsePrometheus:  cfg.UsePrometheus,
			UseOTLPMetrics: cfg.UseOTLPMetrics,
			OTLPMetricsURL: cfg.OTLPMetricsURL,
			InsecureOTLP:   cfg.InsecureOTLP,
		}
	}

	return serverConfig
}

// defaultString returns the default value if s is empty
func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
