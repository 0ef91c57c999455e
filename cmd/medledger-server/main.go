package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/config"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/audit"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/identity"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/db"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medledger-server",
		Short: "Medical record access ledger API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(auditCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ledger API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			autoMigrate, _ := cmd.Flags().GetBool("auto-migrate")
			dir, _ := cmd.Flags().GetString("dir")
			return runServer(autoMigrate, dir)
		},
	}
	cmd.Flags().Bool("auto-migrate", false, "Apply pending migrations before serving (postgres backend)")
	cmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					state, appliedAt := "pending", ""
					if s.Applied {
						state = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// withMigrator runs fn against the configured database. Migrations only
// apply to the postgres backend, so DATABASE_URL is required regardless of
// STORE_BACKEND.
func withMigrator(dir string, fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		Schema:   cfg.DBSchema,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, dir, cfg.DBSchema))
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit ledger",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the audit ledger as text or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")
			filter := audit.Filter{}
			filter.Actor, _ = cmd.Flags().GetString("actor")
			filter.Subject, _ = cmd.Flags().GetString("subject")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return exportLedger(ctx, w, st, filter, format)
		},
	}
	exportCmd.Flags().String("out", "audit_logs.txt", "Output file, or - for stdout")
	exportCmd.Flags().String("format", "text", "Output format: text or csv")
	exportCmd.Flags().String("actor", "", "Only entries with this actor")
	exportCmd.Flags().String("subject", "", "Only entries with this subject")
	cmd.AddCommand(exportCmd)

	return cmd
}

func exportLedger(ctx context.Context, w io.Writer, st *stores, f audit.Filter, format string) error {
	ledger := audit.NewLedger(st.audit)
	names := identity.NewRegistry(st.identities, nil)

	entries, err := ledger.Find(ctx, f)
	if err != nil {
		return err
	}
	switch format {
	case "", "text":
		return audit.WriteText(ctx, w, entries, names)
	case "csv":
		return audit.WriteCSV(ctx, w, entries, names)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func runServer(autoMigrate bool, migrationsDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		l := newLogger(nil)
		l.Error().Err(err).Msg("failed to load config")
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
	}
	defer st.Close()
	logger.Info().Str("backend", st.backend).Msg("store opened")

	if autoMigrate && st.pool != nil {
		n, err := db.NewMigrator(st.pool, migrationsDir, cfg.DBSchema).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}

	a, err := newApp(ctx, st, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise ledger")
	}
	e := newServer(a, st, cfg, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
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
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
