package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ariebrainware/tbcare/adherence"
	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/config"
	"github.com/ariebrainware/tbcare/endpoint"
	"github.com/ariebrainware/tbcare/middleware"
	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/treatment"
	"github.com/ariebrainware/tbcare/util"
	"github.com/ariebrainware/tbcare/visit"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tbcare",
		Short: "TB treatment lifecycle and follow-up scheduling service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(rateLimitCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(model.Models()...); err != nil {
				return fmt.Errorf("auto-migrate: %w", err)
			}
			logger.Info().Str("driver", cfg.DBDriver).Msg("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the access roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := model.SeedRoles(db); err != nil {
				return err
			}
			logger.Info().Strs("roles", model.RoleNames).Msg("roles seeded")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID uint
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for an operator or integration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWTSECRET is not set")
			}
			actor := authorize.Actor{UserID: userID, Role: authorize.Role(role)}
			if _, ok := authorize.KnownRoles[actor.Role]; !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := middleware.GenerateToken([]byte(cfg.JWTSecret), actor, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id carried by the token")
	cmd.Flags().StringVar(&role, "role", string(authorize.RoleDoctor), "role carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func rateLimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage request rate limit counters",
	}

	var caller string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear the request counter of one caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.HasPrefix(caller, "user:") && !strings.HasPrefix(caller, "ip:") {
				return fmt.Errorf("caller must look like user:<id> or ip:<addr>, got %q", caller)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, err := config.ConnectRedis(cfg); err != nil {
				return err
			}
			if err := middleware.ResetRateLimit(cmd.Context(), caller); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rate limit cleared for %s\n", caller)
			return nil
		},
	}
	reset.Flags().StringVar(&caller, "caller", "", "caller key, user:<id> or ip:<addr>")
	_ = reset.MarkFlagRequired("caller")

	cmd.AddCommand(reset)
	return cmd
}

func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger := config.NewLogger(cfg)
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
		return nil, logger, nil, err
	}
	return cfg, logger, db, nil
}

func runServer() error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWTSECRET must be set to serve the API")
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	if cfg.IsTest() {
		if err := db.AutoMigrate(model.Models()...); err != nil {
			return err
		}
	}

	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		// Rate limiting and the adherence cache degrade to no-ops without redis.
		logger.Warn().Err(err).Msg("redis unavailable")
	}

	util.SetSecurityLogger(logger.With().Str("channel", "security").Logger())
	util.SetSecurityLoggerDB(db)

	repo := treatment.NewGormRepository(db)
	treatments := treatment.NewService(
		repo,
		treatment.NewGormPatientLookup(db),
		treatment.NewGormDiagnosisLookup(db),
		treatment.NewGormAppointmentScheduler(db, treatment.AppointmentSlot{
			Start:    cfg.AppointmentStart,
			Duration: cfg.AppointmentDuration(),
		}),
		logger,
	)
	adh := adherence.NewService(repo, rdb, cfg.AdherenceCacheTTL, logger)
	tracker := visit.NewTracker(repo, logger)
	tracker.SetInvalidator(adh)

	authz, err := authorize.New()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	router := endpoint.NewRouter(endpoint.NewHandler(treatments, tracker, adh, logger), authz, endpoint.RouterOptions{
		JWTSecret: []byte(cfg.JWTSecret),
		Logger:    logger,
		RateLimit: middleware.RateLimitConfig{Limit: cfg.RateLimit, Window: cfg.RateWindow},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Info().Msg("server stopped")
	return nil
}
