package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/campaign-dash/internal/auth"
	"github.com/AngelCh415/campaign-dash/internal/config"
	"github.com/AngelCh415/campaign-dash/internal/httpx"
	"github.com/AngelCh415/campaign-dash/internal/ingest"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "campaign-dash",
		Short:         "Campaign KPI dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	cmd.AddCommand(syncCmd(&configPath))
	cmd.AddCommand(hashPasswordCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random JWT signing secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := genSecret()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "campaign-dash %s\n", Version)
		},
	})
	return cmd
}

func syncCmd(configPath *string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy one day of Adjust data into the sheet (default: yesterday)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			a, err := build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if a.syncer == nil {
				return ingest.ErrAdjustNotConfigured
			}
			var n int
			if date == "" {
				n, err = a.syncer.SyncYesterday(cmd.Context())
			} else {
				day, perr := time.ParseInLocation("2006-01-02", date, cfg.Location())
				if perr != nil {
					return fmt.Errorf("--date: %w", perr)
				}
				n, err = a.syncer.SyncDay(cmd.Context(), day)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows synced\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to sync (YYYY-MM-DD)")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash to use as ADMIN_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			h, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func genSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func newLogger(cfg config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	deps := httpx.Deps{
		Log:       logger,
		Campaigns: a.campaigns,
		Auth:      a.auth,
		Metrics:   a.tel.Handler(),
		Counter:   a.tel,
	}
	if a.syncer != nil {
		deps.Sync = a.syncer
		if cfg.Adjust.SyncEnabled {
			go ingest.NewScheduler(cfg.Adjust.SyncHour, cfg.Location(), logger).Run(ctx, func(ctx context.Context) error {
				_, err := a.syncer.SyncYesterday(ctx)
				return err
			})
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("port", cfg.Port), slog.String("source", cfg.Sheet.Source), slog.String("schema", cfg.Sheet.Schema))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("err", err.Error()))
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
