package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"role-sync/core/config"
	"role-sync/core/host"
	"role-sync/core/lang"
	"role-sync/core/loader"
	"role-sync/core/logger"
	"role-sync/core/middleware/auth"
	"role-sync/core/middleware/rayid"
	"role-sync/core/permission"
	"role-sync/core/permission/luckperms"
	"role-sync/core/permission/memory"
	"role-sync/core/platform"
	"role-sync/core/store"

	"role-sync/feature/admin"
	"role-sync/feature/rolesync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the role sync server",
	Long: `Starts the host loop, the sync workers and the HTTP server that accepts
role events and admin requests.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize Logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect the link store
	st, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close()
	if err := st.InitializeSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	logg.Info("Link store ready", zap.String("driver", cfg.Database.Driver), zap.String("engine", st.Engine()))

	// 4. Host loop
	loop, err := host.NewLoop(cfg.Host, logg)
	if err != nil {
		return fmt.Errorf("failed to start host loop: %w", err)
	}

	// 5. Permission backend
	adapter, err := selectBackend(ctx, cfg.Permission, logg)
	if err != nil {
		return err
	}

	// 6. Role source
	var upstream platform.RoleSource
	if remote := platform.NewRemote(cfg.Platform, nil); remote != nil {
		upstream = remote
	}
	directory := platform.NewDirectory(upstream)

	// 7. Sync engine
	bridge := rolesync.NewBridge(cfg.Sync, st, adapter, loop, directory, logg,
		rolesync.WithWhitelistPersister(cfg.SaveManageWhitelist))

	messages, err := lang.Load(cfg.Lang)
	if err != nil {
		return fmt.Errorf("failed to load language files: %w", err)
	}
	logg.Info("Language loaded", zap.String("language", messages.Language()))

	reload := func(ctx context.Context) (*lang.Bundle, error) {
		next, err := config.LoadConfig(configDir)
		if err != nil {
			return nil, err
		}
		if err := bridge.Reload(ctx, next.Sync); err != nil {
			return nil, err
		}
		return lang.Load(next.Lang)
	}

	// 8. Initialize Fiber App
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// RayID first so every log line carries it
	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})
	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
	if cfg.Server.ApiKey == "" {
		logg.Warn("No API key configured, admin API is open")
	}

	mgr := loader.NewManager(logg)
	mgr.Register(rolesync.NewFeature(bridge, logg))
	mgr.Register(admin.NewFeature(admin.NewService(bridge, messages, reload, logg)))
	if err := mgr.LoadAll(app); err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}

	// 9. Run until signalled
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		return bridge.Run(gctx)
	})
	g.Go(func() error {
		logg.Info("Starting server", zap.String("address", cfg.Server.ListenAddr()))
		return app.Listen(cfg.Server.ListenAddr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// selectBackend registers the built-in adapters and binds the first one
// detected. A missing backend is not fatal: sync stays disabled.
func selectBackend(ctx context.Context, cfg permission.Config, logg *zap.Logger) (permission.Adapter, error) {
	registry := permission.NewRegistry()
	if err := registry.Register(memory.New(cfg.Memory.Enabled)); err != nil {
		return nil, err
	}
	if cfg.LuckPerms.URL != "" {
		if err := registry.Register(luckperms.New(cfg.LuckPerms, nil)); err != nil {
			return nil, err
		}
	}

	adapter, err := registry.Select(ctx, cfg.Priority, cfg.CallTimeout)
	if errors.Is(err, permission.ErrBackendMissing) {
		logg.Warn("No permission backend detected, role sync is disabled",
			zap.Strings("probed", registry.Names()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select permission backend: %w", err)
	}
	logg.Info("Permission backend bound", zap.String("backend", adapter.Name()))
	return adapter, nil
}
