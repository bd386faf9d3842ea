package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ruteri/asset-storage-adapter/cmd/flags"
	"github.com/ruteri/asset-storage-adapter/config"
	"github.com/ruteri/asset-storage-adapter/httpserver"
	"github.com/ruteri/asset-storage-adapter/interfaces"
	"github.com/ruteri/asset-storage-adapter/storage"
	"github.com/urfave/cli/v2"
)

var flagTargetDir *cli.StringFlag = &cli.StringFlag{
	Name:  "target-dir",
	Usage: "local store directory to check before the remote backend",
}
var flagName *cli.StringFlag = &cli.StringFlag{
	Name:  "name",
	Usage: "filename to store the upload under (defaults to the source file name)",
}
var flagOut *cli.StringFlag = &cli.StringFlag{
	Name:    "out",
	Aliases: []string{"o"},
	Usage:   "write the asset to this file instead of stdout",
}

var errMissingArg = errors.New("missing argument")

func main() {
	app := &cli.App{
		Name:  "assetctl",
		Usage: "Inspect and manage stored assets",
		Flags: append([]cli.Flag{
			flags.ConfigFileFlag,
			flags.ServerAddrFlag,
			flags.VaultAddrFlag,
			flags.VaultTokenFlag,
			flags.LogServiceFlagFn("assetctl"),
		}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:      "exists",
				Usage:     "report whether a filename is stored",
				ArgsUsage: "<filename>",
				Flags:     []cli.Flag{flagTargetDir},
				Action: func(cCtx *cli.Context) error {
					filename := cCtx.Args().First()
					if filename == "" {
						return errMissingArg
					}
					adapter, err := newAdapter(cCtx)
					if err != nil {
						return err
					}
					exists, err := adapter.Exists(cCtx.Context, filename, cCtx.String(flagTargetDir.Name))
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, exists)
					return nil
				},
			},
			{
				Name:      "upload",
				Usage:     "store a local file and print its display URL",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{flagName},
				Action: func(cCtx *cli.Context) error {
					src := cCtx.Args().First()
					if src == "" {
						return errMissingArg
					}
					name := cCtx.String(flagName.Name)
					if name == "" {
						name = filepath.Base(src)
					}
					adapter, err := newAdapter(cCtx)
					if err != nil {
						return err
					}
					url, err := adapter.Save(cCtx.Context, interfaces.Asset{
						Path: src,
						Name: name,
						Ext:  filepath.Ext(name),
					})
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, url)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "remove a stored filename",
				ArgsUsage: "<filename>",
				Action: func(cCtx *cli.Context) error {
					filename := cCtx.Args().First()
					if filename == "" {
						return errMissingArg
					}
					adapter, err := newAdapter(cCtx)
					if err != nil {
						return err
					}
					return adapter.Delete(cCtx.Context, filename)
				},
			},
			{
				Name:      "read",
				Usage:     "fetch the bytes of an asset by local path or URL",
				ArgsUsage: "<path-or-url>",
				Flags:     []cli.Flag{flagOut},
				Action: func(cCtx *cli.Context) error {
					path := cCtx.Args().First()
					if path == "" {
						return errMissingArg
					}
					adapter, err := newAdapter(cCtx)
					if err != nil {
						return err
					}
					data, err := adapter.Read(cCtx.Context, interfaces.ReadOptions{Path: path})
					if err != nil {
						return err
					}
					if out := cCtx.String(flagOut.Name); out != "" {
						return os.WriteFile(out, data, 0o644)
					}
					_, err = cCtx.App.Writer.Write(data)
					return err
				},
			},
			{
				Name:      "seed",
				Usage:     "copy a file into the local fallback store and print its served path",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{flagName},
				Action: func(cCtx *cli.Context) error {
					src := cCtx.Args().First()
					if src == "" {
						return errMissingArg
					}
					cfg, err := config.Load(cCtx.String(flags.ConfigFileFlag.Name))
					if err != nil {
						return err
					}
					name := cCtx.String(flagName.Name)
					if name == "" {
						name = filepath.Base(src)
					}
					if folder := cfg.Upload.Folder(); folder != "" {
						name = folder + "/" + name
					}

					f, err := os.Open(src)
					if err != nil {
						return err
					}
					defer f.Close()

					local, err := storage.NewLocalFileStore(cfg.LocalPath(), cfg.Local.URLPrefix, flags.SetupStderrLogger(cCtx))
					if err != nil {
						return err
					}
					served, err := local.Save(cCtx.Context, name, f)
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, served)
					return nil
				},
			},
			{
				Name:      "id",
				Usage:     "print the storage identifier derived for a filename",
				ArgsUsage: "<filename>",
				Action: func(cCtx *cli.Context) error {
					filename := cCtx.Args().First()
					if filename == "" {
						return errMissingArg
					}
					cfg, err := config.Load(cCtx.String(flags.ConfigFileFlag.Name))
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, storage.NewIdentifierMapper(cfg.Upload).StorageID(filename))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newAdapter talks to an asset server when --server-addr is given, and otherwise
// builds the adapter from the storage configuration.
func newAdapter(cCtx *cli.Context) (interfaces.StorageAdapter, error) {
	if addr := cCtx.String(flags.ServerAddrFlag.Name); addr != "" {
		return &httpserver.Client{ServerAddr: addr}, nil
	}

	logger := flags.SetupStderrLogger(cCtx)
	cfg, err := flags.LoadStorageConfig(cCtx, logger)
	if err != nil {
		return nil, err
	}
	return storage.NewAdapterFromConfig(cfg, storage.NewRemoteServiceFactory(logger), nil, nil, logger)
}
