// Package cli holds the hrms command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hrms/internal/app/server"
	"hrms/internal/domain/payroll"
	"hrms/internal/platform/config"
	"hrms/internal/platform/db"
	"hrms/internal/platform/logging"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hrms",
		Short:         "HR management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand(), newCalcCommand())
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.Run(cmd.Context(), config.Load())
		},
	}
}

// withPool connects using the environment config and runs fn.
func withPool(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error) error {
	cfg := config.Load()
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	return fn(ctx, pool, cfg)
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	step := func(use, short string, run func(ctx context.Context, pool *pgxpool.Pool) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, _ config.Config) error {
					return run(ctx, pool)
				})
			},
		}
	}
	cmd.AddCommand(
		step("up", "Apply pending migrations", db.Migrate),
		step("down", "Roll back the latest migration", db.MigrateDown),
		step("status", "Print migration status", db.MigrationStatus),
	)
	return cmd
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user and default bonus policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), db.Seed)
		},
	}
}

func newCalcCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Offline calculators",
	}
	var file, ratesFile string
	payrollCmd := &cobra.Command{
		Use:   "payroll",
		Short: "Compute a payroll breakdown from a YAML input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ratesFile == "" {
				ratesFile = os.Getenv("PAYROLL_RATES_FILE")
			}
			return runPayrollCalc(cmd.OutOrStdout(), file, ratesFile)
		},
	}
	payrollCmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with pay elements")
	payrollCmd.Flags().StringVar(&ratesFile, "rates", "", "YAML file overriding statutory rates")
	_ = payrollCmd.MarkFlagRequired("file")
	cmd.AddCommand(payrollCmd)
	return cmd
}

func runPayrollCalc(out io.Writer, file, ratesFile string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var in payroll.Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	if err := in.Validate(); err != nil {
		return err
	}
	rates, err := payroll.LoadRates(ratesFile)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payroll.Compute(in, rates))
}
