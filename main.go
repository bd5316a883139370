package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"EmberVale/commands"
	"EmberVale/internal/backup"
	"EmberVale/internal/cache"
	"EmberVale/internal/config"
	"EmberVale/internal/interp"
	"EmberVale/internal/logging"
	"EmberVale/internal/server"
	"EmberVale/internal/storage"
	"EmberVale/internal/templates"
	"EmberVale/internal/world"
)

var version = "dev"

func main() {
	root := buildRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	var (
		addr     string
		dataRoot string
	)

	root := &cobra.Command{
		Use:           "embervale",
		Short:         "A text world that listens to what is said in it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, dataRoot)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&addr, "addr", "", "Listen address (overrides EMBERVALE_ADDR)")
	root.PersistentFlags().StringVar(&dataRoot, "data", "", "Data root directory (overrides EMBERVALE_DATA)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Restore the world and accept telnet connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, dataRoot)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Restore the world, write one snapshot, and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(dataRoot)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "restore",
		Short: "Verify the current snapshot restores cleanly, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(dataRoot)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("embervale %s\n", version)
		},
	})

	return root
}

// bootStack wires the shared collaborators from configuration: logger,
// durable store, template store, live cache, interpreter and recovery
// engine. The world is not populated yet; callers restore or ensure it.
func bootStack(cfg config.Config) (*world.Deps, *backup.Engine, *logging.Logger, func(), error) {
	log := logging.New(cfg.DataRoot, cfg.LogLevel, cfg.LogFormat)

	tpl, err := templates.Open(cfg.TemplatesPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open template store: %w", err)
	}

	deps := &world.Deps{
		Cache: cache.New(log),
		Store: storage.NewStore(cfg.DataRoot, log),
		Log:   log,
		IDs:   world.NewIDSource(),
	}
	deps.Interp = interp.New(deps)

	engine := backup.NewEngine(deps, tpl)
	return deps, engine, log, func() { tpl.Close() }, nil
}

// bootWorld is bootStack plus the guarantee that a live world exists.
func bootWorld(cfg config.Config) (*world.Deps, *backup.Engine, *logging.Logger, func(), error) {
	deps, engine, log, shutdown, err := bootStack(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := engine.EnsureWorld(); err != nil {
		shutdown()
		return nil, nil, nil, nil, err
	}
	return deps, engine, log, shutdown, nil
}

// loadConfig reads the environment configuration and applies any flag
// overrides, re-deriving the data-root paths when the root moves.
func loadConfig(addr, dataRoot string) (config.Config, error) {
	if dataRoot != "" {
		os.Setenv("EMBERVALE_DATA", dataRoot)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	return cfg, nil
}

func runServe(addr, dataRoot string) error {
	cfg, err := loadConfig(addr, dataRoot)
	if err != nil {
		return err
	}

	deps, engine, log, shutdown, err := bootWorld(cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	accounts, err := server.NewAccountManager(cfg.AccountsPath, log)
	if err != nil {
		return err
	}
	accounts.SetAdminAccount(cfg.AdminAccount)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := backup.NewScheduler(engine, cfg.BackupCron, log)
	if err != nil {
		return err
	}
	go scheduler.Run(ctx)

	realm := server.NewRealm(deps, engine, accounts, log)
	return server.ListenAndServe(cfg.Addr, realm, commands.Dispatch)
}

func runBackup(dataRoot string) error {
	cfg, err := loadConfig("", dataRoot)
	if err != nil {
		return err
	}

	_, engine, _, shutdown, err := bootWorld(cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	return engine.WriteLiveBackup()
}

func runRestore(dataRoot string) error {
	cfg, err := loadConfig("", dataRoot)
	if err != nil {
		return err
	}

	deps, engine, _, shutdown, err := bootStack(cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	if !engine.RestoreLiveBackup() {
		return fmt.Errorf("no usable snapshot under %s", cfg.DataRoot)
	}
	fmt.Printf("restore ok: %d entities live\n", deps.Cache.Len())
	return nil
}
