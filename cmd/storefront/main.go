// Command storefront runs the shop: the public catalog and cart pages plus
// the admin back-office, all on one HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/admingate"
	"github.com/osegonte/p9-commerce/internal/cart"
	"github.com/osegonte/p9-commerce/internal/catalog"
	"github.com/osegonte/p9-commerce/internal/content"
	"github.com/osegonte/p9-commerce/internal/handlers"
	"github.com/osegonte/p9-commerce/internal/platform/auth"
	"github.com/osegonte/p9-commerce/internal/platform/config"
	pfirestore "github.com/osegonte/p9-commerce/internal/platform/firestore"
	"github.com/osegonte/p9-commerce/internal/platform/observability"
	"github.com/osegonte/p9-commerce/internal/platform/storage"
	repofirestore "github.com/osegonte/p9-commerce/internal/repositories/firestore"
	"github.com/osegonte/p9-commerce/internal/session"
)

const shutdownGrace = 10 * time.Second

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("storefront exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := pfirestore.NewProvider(config.FirestoreConfig{
		ProjectID:    cfg.FirestoreProjectID(),
		EmulatorHost: cfg.Firestore.EmulatorHost,
	})
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Warn("firestore close failed", zap.Error(err))
		}
	}()

	products, err := repofirestore.NewProductRepository(provider)
	if err != nil {
		return err
	}
	admins, err := repofirestore.NewAdminRepository(provider)
	if err != nil {
		return err
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceDeps{
		Products: products,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	gate, err := admingate.NewService(admingate.ServiceDeps{
		Admins: admins,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	persister, err := cartPersister(cfg, provider, logger)
	if err != nil {
		return err
	}
	carts := cart.NewManager(cart.ManagerDeps{
		Namespace: cfg.Cart.Namespace,
		Persister: persister,
		Logger:    logger,
	})

	sessions, err := session.NewManager(session.Config{
		AdminCookieName: cfg.Session.CookieName,
		CartCookieName:  cfg.Cart.CookieName,
		HashKey:         []byte(cfg.Session.HashKey),
		BlockKey:        blockKey(cfg.Session.BlockKey),
		CookieSecure:    cfg.Session.Secure,
	})
	if err != nil {
		return err
	}

	renderer, err := handlers.NewRenderer(cfg.Site.TemplatesDir, cfg.Site.Dev, logger)
	if err != nil {
		return err
	}

	loader := content.NewLoader(filepath.Dir(cfg.Site.ContentFile))

	deps := handlers.Deps{
		Catalog:  catalogSvc,
		Gate:     gate,
		Carts:    carts,
		Sessions: sessions,
		Content:  loader,
		Renderer: renderer,
		Logger:   logger,
	}

	if cfg.Firebase.ProjectID != "" {
		callbackURL := cfg.Site.BaseURL + "/auth/callback"
		firebaseClient, err := auth.NewFirebaseClient(ctx, cfg.Firebase, callbackURL)
		if err != nil {
			return err
		}
		deps.Verifier = firebaseClient
		deps.Links = firebaseClient
	} else {
		logger.Warn("firebase not configured, admin sign-in disabled")
	}

	if cfg.Storage.ProductImagesBucket != "" {
		var storageOpts []storage.ClientOption
		if cfg.Storage.PublicBaseURL != "" {
			storageOpts = append(storageOpts, storage.WithPublicBaseURL(cfg.Storage.PublicBaseURL))
		}
		uploads, err := storage.NewClient(ctx, cfg.Storage.ProductImagesBucket, nil, storageOpts...)
		if err != nil {
			return err
		}
		defer func() {
			if err := uploads.Close(); err != nil {
				logger.Warn("storage close failed", zap.Error(err))
			}
		}()
		deps.Uploads = uploads
	} else {
		logger.Warn("image bucket not configured, uploads disabled")
	}

	h, err := handlers.New(deps)
	if err != nil {
		return err
	}

	router := handlers.NewRouter(h, handlers.RouterConfig{
		PublicDir: cfg.Site.PublicDir,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront listening",
			zap.String("addr", srv.Addr),
			zap.Bool("dev", cfg.Site.Dev),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cartPersister picks the cart backend: Firestore when a database project is
// configured explicitly, a local file slot otherwise.
func cartPersister(cfg config.Config, provider *pfirestore.Provider, logger *zap.Logger) (cart.Persister, error) {
	if cfg.Firestore.ProjectID != "" {
		repo, err := repofirestore.NewCartRepository(provider)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	logger.Info("using file cart persistence", zap.String("dir", cfg.Cart.StateDir))
	return cart.NewFilePersister(cfg.Cart.StateDir)
}

func blockKey(key string) []byte {
	if key == "" {
		return nil
	}
	return []byte(key)
}
