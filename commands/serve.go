package commands

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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tourbook/catalog"
	"tourbook/checkout"
	"tourbook/config"
	"tourbook/handlers"
	"tourbook/jwt"
	"tourbook/repository"
	"tourbook/routers"
	"tourbook/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	rateCacheTTL    = 5 * time.Minute
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

// catalogAdmin joins the write side of the three catalog tables.
type catalogAdmin struct {
	*repository.PackageRepo
	*repository.SectionRepo
	*repository.FxRateRepo
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.SetupMySQLConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect mysql: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	rdb, err := config.SetupRedisConnection(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	tokens, err := jwt.LoadManager(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath, cfg.JWT.TTL, users)
	if err != nil {
		return fmt.Errorf("load signing keys (run `%s keys` to create them): %w", serviceName, err)
	}

	carts, err := storage.New(storage.Options{
		Driver: cfg.Storage.Driver,
		Dir:    cfg.Storage.Dir,
		Prefix: cfg.Storage.Prefix,
		TTL:    cfg.Storage.TTL,
	}, rdb)
	if err != nil {
		return err
	}

	packages := repository.NewPackageRepo(db)
	sections := repository.NewSectionRepo(db)
	fxRates := repository.NewFxRateRepo(db)
	orders := repository.NewOrderRepo(db)

	cache := repository.NewPackageCache(packages, rdb, log)
	rates := repository.NewRateCache(fxRates, rateCacheTTL)
	notifier := repository.NewRedisNotifier(rdb, log)

	feeds := catalog.NewFeeds(repository.Source{Packages: cache, Sections: sections}, log)
	if err := feeds.Watch(ctx, notifier); err != nil {
		// feeds still re-fetch on the next read after a local write
		log.Warn("catalog change subscription unavailable", slog.Any("err", err))
	}
	defer feeds.Close()

	h := &handlers.Handler{
		Packages:      feeds.Packages,
		Sections:      feeds.Sections,
		Rates:         rates,
		Display:       cfg.Display.Table(),
		Formatter:     cfg.Display.Formatter(),
		Carts:         carts,
		Checkout:      checkout.NewService(orders, log),
		Orders:        orders,
		Users:         users,
		Tokens:        tokens,
		Admin:         catalogAdmin{packages, sections, fxRates},
		Changes:       &repository.Changes{Cache: cache, Rates: rates, Notifier: notifier, Local: feeds, Log: log},
		UploadDir:     cfg.Server.UploadDir,
		SecureCookies: cfg.Server.SecureCookies,
		Log:           log,
	}

	if cfg.Server.UploadDir != "" {
		if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
			return fmt.Errorf("create upload dir: %w", err)
		}
	}

	router, err := routers.SetupRouters(h, routers.Options{
		Tokens:         tokens,
		LoginPath:      cfg.Server.LoginPath,
		AllowOrigin:    cfg.Server.AllowOrigin,
		TrustedProxies: cfg.Server.TrustedProxies,
		UploadDir:      cfg.Server.UploadDir,
		DefaultLang:    cfg.Display.DefaultLang,
		Log:            log,
	})
	if err != nil {
		return err
	}

	return listen(ctx, &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	})
}

// listen serves until ctx is cancelled, then drains in-flight requests.
func listen(ctx context.Context, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("http server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
