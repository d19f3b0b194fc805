package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/formentry/internal/config"
	"github.com/ehr/formentry/internal/domain/diagnosis"
	"github.com/ehr/formentry/internal/domain/encounter"
	"github.com/ehr/formentry/internal/domain/form"
	"github.com/ehr/formentry/internal/htmlform"
	"github.com/ehr/formentry/internal/platform/auth"
	"github.com/ehr/formentry/internal/platform/db"
	"github.com/ehr/formentry/internal/platform/fragment"
	"github.com/ehr/formentry/internal/platform/middleware"
	"github.com/ehr/formentry/migrations"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "formentry-server",
		Short:        "HTML form entry API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(formsCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the form entry API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrations.FS))
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func formsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "Manage stored form definitions",
	}

	var manifest, fragmentDir string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Create the forms listed in a YAML manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := form.LoadManifest(os.DirFS(filepath.Dir(manifest)), filepath.Base(manifest))
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if fragmentDir == "" {
				fragmentDir = cfg.FragmentDir
			}
			logger := newLogger(cfg.Env, cfg.LogLevel, cmd.ErrOrStderr())

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			engine, err := newEngine(fragmentDir, logger)
			if err != nil {
				return err
			}

			n, err := form.NewService(form.NewRepo(pool), engine, logger).ImportForms(ctx, forms)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d form(s).\n", n, len(forms))
			return err
		},
	}
	importCmd.Flags().StringVar(&manifest, "manifest", "", "Path to the YAML manifest")
	importCmd.Flags().StringVar(&fragmentDir, "fragment-dir", "", "Directory overriding the built-in fragments")
	_ = importCmd.MarkFlagRequired("manifest")
	cmd.AddCommand(importCmd)

	return cmd
}

// renderCmd renders form markup offline. It needs neither a database nor
// server configuration.
func renderCmd() *cobra.Command {
	var file, mode, diagnosesFile, fragmentDir string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render HTML form markup to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			markup, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read form: %w", err)
			}

			var existing []encounter.Diagnosis
			if diagnosesFile != "" {
				raw, err := os.ReadFile(diagnosesFile)
				if err != nil {
					return fmt.Errorf("read diagnoses: %w", err)
				}
				if err := json.Unmarshal(raw, &existing); err != nil {
					return fmt.Errorf("decode diagnoses: %w", err)
				}
			}

			m, err := htmlform.ParseMode(mode)
			if err != nil {
				return err
			}

			logger := newLogger("production", "warn", cmd.ErrOrStderr())
			engine, err := newEngine(fragmentDir, logger)
			if err != nil {
				return err
			}

			res, err := engine.Render(cmd.Context(), htmlform.RenderRequest{
				Mode:      m,
				Encounter: &encounter.Encounter{ID: uuid.New(), Diagnoses: existing},
				Markup:    string(markup),
			})
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), res.HTML)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the form markup")
	cmd.Flags().StringVar(&mode, "mode", "enter", "Form mode: enter, edit or view")
	cmd.Flags().StringVar(&diagnosesFile, "diagnoses", "", "JSON file with the encounter's existing diagnoses")
	cmd.Flags().StringVar(&fragmentDir, "fragment-dir", "", "Directory overriding the built-in fragments")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newLogger(env, level string, w io.Writer) zerolog.Logger {
	var logger zerolog.Logger
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(w).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// newEngine builds the form engine with every tag this server understands.
func newEngine(fragmentDir string, logger zerolog.Logger) (*htmlform.Engine, error) {
	fragments, err := fragment.Default(fragmentDir, logger)
	if err != nil {
		return nil, err
	}

	engine := htmlform.NewEngine(logger)
	engine.Register(diagnosis.TagName, diagnosis.NewTagHandler(fragments))
	return engine, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Env, cfg.LogLevel, os.Stdout)
	if cfg.IsDev() {
		logger.Warn().Msg("running in DEVELOPMENT mode: every request is authenticated as admin")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	engine, err := newEngine(cfg.FragmentDir, logger)
	if err != nil {
		return fmt.Errorf("load fragments: %w", err)
	}
	logger.Info().Strs("tags", engine.Tags()).Msg("form engine ready")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	formSvc := form.NewService(form.NewRepo(pool), engine, logger)
	form.NewHandler(formSvc).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
