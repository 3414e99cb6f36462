package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"patient-portal/internal/booking"
	"patient-portal/internal/client"
	"patient-portal/internal/config"
	"patient-portal/internal/metrics"
	"patient-portal/internal/middleware"
	"patient-portal/internal/models"
	"patient-portal/internal/notify"
	"patient-portal/internal/routes"
	"patient-portal/internal/session"
)

// openStorage returns the configured session store and a function releasing
// its connections.
func openStorage(cfg *config.Config) (session.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Session.Store {
	case config.StoreMySQL:
		db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return session.NewGormStorage(db), sqlDB.Close, nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return session.NewRedisStorage(rdb, cfg.Redis.Prefix), rdb.Close, nil
	default:
		fs, err := session.NewFileStorage(cfg.Session.File)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	}
}

func loadSession(ctx context.Context, a *app) (*session.Context, func() error, error) {
	storage, closeFn, err := openStorage(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.Load(ctx, storage)
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("error loading session: %w", err)
	}
	return sess, closeFn, nil
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the portal API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, closeStorage, err := loadSession(ctx, a)
			if err != nil {
				return err
			}
			defer closeStorage()

			api, err := client.New(a.cfg.API.BaseURL, a.cfg.API.Timeout, a.logger)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			feed := notify.NewFeed(50)

			if a.cfg.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery(), middleware.RequestLogger(a.logger))

			// Configure CORS
			corsConfig := cors.DefaultConfig()
			corsConfig.AllowOrigins = []string{a.cfg.Origin}
			corsConfig.AllowCredentials = true
			corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
			corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
			router.Use(cors.New(corsConfig))

			routes.SetupRoutes(router, routes.Dependencies{
				Config:  a.cfg,
				Session: sess,
				Backend: api,
				Feed:    feed,
				Booking: booking.Deps{
					Notifier: notify.Multi{notify.NewLogNotifier(a.logger), feed},
					Metrics:  metrics.NewPortalMetrics(reg),
					Logger:   a.logger,
				},
				Gatherer: reg,
			})

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().
					Str("port", a.cfg.Port).
					Str("backend", a.cfg.API.BaseURL).
					Str("session_store", a.cfg.Session.Store).
					Bool("authenticated", sess.IsAuthenticated()).
					Msg("portal listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("failed to start server: %w", err)
			case <-ctx.Done():
			}

			a.logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newDoctorsCmd(a *app) *cobra.Command {
	var department string
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "List the doctors of a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			dept := models.Department(department)
			if !dept.Valid() {
				return fmt.Errorf("unknown department %q", department)
			}

			api, err := client.New(a.cfg.API.BaseURL, a.cfg.API.Timeout, a.logger)
			if err != nil {
				return err
			}
			doctors, err := api.FetchDoctors(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", booking.MsgDoctorsUnavailable, err)
			}
			printDoctors(cmd.OutOrStdout(), booking.ListDoctorsForDepartment(doctors, dept))
			return nil
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", string(models.DefaultDepartment()), "department to list")
	return cmd
}

func printDoctors(w io.Writer, doctors []models.Doctor) {
	if len(doctors) == 0 {
		fmt.Fprintln(w, "no doctors")
		return
	}
	for _, d := range doctors {
		fmt.Fprintf(w, "%s\t%s\n", d.ID, d.FullName())
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored user",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, closeStorage, err := loadSession(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer closeStorage()

			if err := sess.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}
