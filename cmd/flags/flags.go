package flags

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/asset-storage-adapter/common"
	"github.com/ruteri/asset-storage-adapter/config"
	"github.com/ruteri/asset-storage-adapter/httpserver"
	"github.com/urfave/cli/v2"
)

// SetupLogger builds the logger described by the log flags, writing to stdout.
func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	return setupLogger(cCtx, os.Stdout)
}

// SetupStderrLogger is SetupLogger for commands whose stdout carries data.
func SetupStderrLogger(cCtx *cli.Context) (log *slog.Logger) {
	return setupLogger(cCtx, os.Stderr)
}

func setupLogger(cCtx *cli.Context, out io.Writer) *slog.Logger {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
		Output:  out,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             60 * time.Second,
	}
}

// LoadStorageConfig loads the configuration file and resolves vault references in its
// credentials.
func LoadStorageConfig(cCtx *cli.Context, logger *slog.Logger) (*config.StorageConfig, error) {
	configFile := cCtx.String(ConfigFileFlag.Name)
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("could not load config %s: %w", configFile, err)
	}

	if !hasVaultRefs(cfg.Auth) {
		return cfg, nil
	}

	resolver, err := config.NewVaultResolver(cCtx.String(VaultAddrFlag.Name), cCtx.String(VaultTokenFlag.Name), logger)
	if err != nil {
		return nil, err
	}
	auth, err := resolver.ResolveAuth(cCtx.Context, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("could not resolve credentials: %w", err)
	}
	return cfg.WithAuth(auth), nil
}

func hasVaultRefs(auth map[string]string) bool {
	for _, v := range auth {
		if strings.HasPrefix(v, config.VaultRefPrefix) {
			return true
		}
	}
	return false
}

var ConfigFileFlag = &cli.StringFlag{
	Name:    "config",
	Value:   "assets.yaml",
	EnvVars: []string{"ASSETS_CONFIG"},
	Usage:   "storage configuration file (YAML)",
}

var VaultAddrFlag = &cli.StringFlag{
	Name:    "vault-addr",
	EnvVars: []string{"VAULT_ADDR"},
	Usage:   "Vault server used to resolve vault:<path>#<field> credentials",
}
var VaultTokenFlag = &cli.StringFlag{
	Name:    "vault-token",
	EnvVars: []string{"VAULT_TOKEN"},
	Usage:   "Vault token",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var ServerAddrFlag = &cli.StringFlag{
	Name:  "server-addr",
	Usage: "asset server to talk to instead of using the storage configuration directly",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
