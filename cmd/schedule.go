package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanadyn/flowbid/app"
	"github.com/vanadyn/flowbid/config"
	"github.com/vanadyn/flowbid/infra/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the decision pipeline on the configured cron expression",
	RunE:  schedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&pricesCSV, "prices", "", "day-ahead price CSV (synthetic curve when empty)")
	rootCmd.AddCommand(scheduleCmd)
}

func schedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	return svc.Schedule(ctx, pricesCSV)
}
