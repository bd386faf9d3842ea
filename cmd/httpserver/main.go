package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/asset-storage-adapter/cmd/flags"
	"github.com/ruteri/asset-storage-adapter/common"
	"github.com/ruteri/asset-storage-adapter/httpserver"
	"github.com/ruteri/asset-storage-adapter/metrics"
	"github.com/ruteri/asset-storage-adapter/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "asset-server",
		Usage: "Serve the asset storage API",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.ConfigFileFlag,
			flags.VaultAddrFlag,
			flags.VaultTokenFlag,
			flags.LogServiceFlagFn("asset-server"),
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			cfg, err := flags.LoadStorageConfig(cCtx, logger)
			if err != nil {
				logger.Error("Failed to load storage configuration", "err", err)
				return err
			}
			logger.Info("Loaded storage configuration", "config", cfg.Summary())

			srvCfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name))

			metricsSrv, err := metrics.New(common.PackageName, srvCfg.MetricsAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}
			srvCfg.Metrics = metricsSrv

			observer, err := metrics.NewPrometheusObserver(metricsSrv.Namespace(), metricsSrv.Registry())
			if err != nil {
				logger.Error("Failed to register storage metrics", "err", err)
				return err
			}

			adapter, err := storage.NewAdapterFromConfig(cfg, storage.NewRemoteServiceFactory(logger), observer, nil, logger)
			if err != nil {
				logger.Error("Failed to create storage adapter", "err", err)
				return err
			}

			server, err := httpserver.New(srvCfg, httpserver.NewHandler(adapter, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
