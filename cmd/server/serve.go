package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/claims-dashboard/backend/internal/api"
	"github.com/claims-dashboard/backend/internal/config"
	"github.com/claims-dashboard/backend/internal/logging"
	"github.com/claims-dashboard/backend/internal/metrics"
	"github.com/claims-dashboard/backend/internal/session"
	"github.com/claims-dashboard/backend/internal/web"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)
	collectors := metrics.New()

	sessionMgr := session.NewManager(session.Options{
		Engine:        cfg.Analytics.Engine,
		TempDir:       cfg.Analytics.TempDirectory,
		MaxSessions:   cfg.Session.MaxSessions,
		ParseCacheTTL: cfg.Session.ParseCacheTTL,
	}, logger, collectors)
	defer sessionMgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionMgr.RunCleanup(ctx, cfg.Session.CleanupInterval, cfg.Session.IdleTimeout)

	e := newEcho(cfg, logger)
	api.SetupMiddleware(e)
	api.RegisterRoutes(e, &api.Dependencies{
		Sessions: sessionMgr,
		Metrics:  collectors,
		Version:  Version,
		Export: api.ExportSettings{
			DefaultName: cfg.Export.DefaultName,
			SheetName:   cfg.Export.SheetName,
		},
		UploadRate:  cfg.Server.UploadRate,
		UploadBurst: cfg.Server.UploadBurst,
	})

	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", "error", err)
		}
	}

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	printBanner(path, cfg, embeddedMode)

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Server.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.Round(time.Microsecond),
			}
			if v.Error != nil {
				logger.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", "error", err, "stack", string(stack))
			return err
		},
	}))

	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Server.CompressionLevel,
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition},
		}))
	}

	return e
}

func printBanner(configPath string, cfg *config.Config, embeddedMode bool) {
	mode := "API only"
	if embeddedMode {
		mode = "Embedded dashboard"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Claims Denial Dashboard                         ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("║  Engine:     %-45s║\n", cfg.Analytics.Engine)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.ServerAddr())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
