package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/account"
	"github.com/sladedevelops/email-microwave/internal/api"
	"github.com/sladedevelops/email-microwave/internal/auth"
	"github.com/sladedevelops/email-microwave/internal/config"
	"github.com/sladedevelops/email-microwave/internal/db"
	"github.com/sladedevelops/email-microwave/internal/generator"
	"github.com/sladedevelops/email-microwave/internal/mailer"
	"github.com/sladedevelops/email-microwave/internal/onboarding"
	"github.com/sladedevelops/email-microwave/internal/storage"
)

/* ------------------------------------------------------------------
   App struct — runtime container
-------------------------------------------------------------------*/

type App struct {
	cfg    config.Config
	log    *zap.Logger
	dbConn *sqlx.DB
	store  *storage.Database
	web    *http.Server
}

// New builds the application from configuration up.
func New(configFile string) (*App, error) {
	a := &App{}
	if err := a.init(configFile); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) init(configFile string) error {
	/* 1. configuration */
	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	a.cfg = c

	/* 2. logging */
	a.log, err = zap.NewProduction()
	if err != nil {
		return err
	}

	/* 3. database + migrations */
	dsn := db.DSN(c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.DBName, c.DB.SSLMode)
	a.dbConn, err = db.Connect(dsn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(a.dbConn); err != nil {
		return err
	}
	a.store = storage.NewDatabase(a.dbConn)

	/* 4. services */
	authSvc, err := auth.NewService(c.JWTSecret, c.JWTExpiry)
	if err != nil {
		return err
	}
	checker := onboarding.NewChecker(a.store, a.log)
	accounts := account.NewService(a.store, authSvc, checker, account.DefaultRetryPolicy, a.log)
	gen := generator.NewClient(c.OpenAI, a.log)
	sender := mailer.NewService(c.SMTP, a.log)

	/* 5. web server */
	handlers := api.NewHandlers(a.store, accounts, authSvc, checker, gen, sender, a.log)
	router := api.SetupRouter(handlers, a.log, c.AuthRateLimit)

	a.web = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", c.WebHost, c.WebPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return nil
}

/* ------------------------------------------------------------------
   Run / Close lifecycle
-------------------------------------------------------------------*/

// Run serves HTTP until interrupted, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("web listening", zap.String("addr", a.web.Addr))
		if err := a.web.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.web.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	_ = a.log.Sync()
	return a.store.Close()
}
