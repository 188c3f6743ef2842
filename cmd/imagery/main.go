package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/earthimagery/internal/adapters/earthengine"
	natsadapter "github.com/samirrijal/earthimagery/internal/adapters/nats"
	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/core/usecases"
	"github.com/samirrijal/earthimagery/internal/pkg/config"
	"github.com/samirrijal/earthimagery/internal/pkg/logging"
)

var (
	credentialsFile string
	logLevel        string

	lookupLon  string
	lookupLat  string
	lookupDate string
	lookupDim  string

	watchYear int
)

var rootCmd = &cobra.Command{
	Use:           "imagery",
	Short:         "Operator tool for the Earth imagery service",
	Long:          `Checks Earth Engine credentials, runs one imagery lookup, or follows the thumbnail event stream.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Authenticate and run the diagnostic query",
	RunE:  runCheck,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Print the thumbnail URL for a location and year",
	RunE:  runLookup,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print thumbnail events from NATS as JSON lines",
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&credentialsFile, "credentials", "c", "", "Service account key file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	lookupCmd.Flags().StringVar(&lookupLon, "lon", "", "Longitude")
	lookupCmd.Flags().StringVar(&lookupLat, "lat", "", "Latitude")
	lookupCmd.Flags().StringVar(&lookupDate, "date", "", "Year (YYYY)")
	lookupCmd.Flags().StringVar(&lookupDim, "dim", "", "Half-width of the region in km (default 0.1)")
	_ = lookupCmd.MarkFlagRequired("lon")
	_ = lookupCmd.MarkFlagRequired("lat")
	_ = lookupCmd.MarkFlagRequired("date")

	watchCmd.Flags().IntVar(&watchYear, "year", 0, "Only events for this year (default all)")

	rootCmd.AddCommand(checkCmd, lookupCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("earthimagery-cli")
	if err != nil {
		return nil, err
	}
	if credentialsFile != "" {
		cfg.EarthEngine.CredentialsFile = credentialsFile
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, "text"))
	return cfg, nil
}

// connect initializes a gateway; unlike the server, failure is fatal here.
func connect(ctx context.Context, cfg *config.Config) (*usecases.Gateway, error) {
	gw := usecases.NewGateway(earthengine.NewConnector(cfg.EarthEngine.CredentialsFile,
		earthengine.WithBaseURL(cfg.EarthEngine.BaseURL),
		earthengine.WithProject(cfg.EarthEngine.Project),
		earthengine.WithHealthImage(cfg.EarthEngine.HealthImage),
	))
	if err := gw.Initialize(ctx); err != nil {
		return nil, err
	}
	return gw, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if err := gw.HealthCheck(cmd.Context()); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	req, err := domain.ParseImageryRequest(lookupLon, lookupLat, lookupDate, lookupDim)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	result, err := usecases.NewImageryService(gw, nil).GetImagery(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(result)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())
	err = sub.SubscribeThumbnails(ctx, watchYear, func(ctx context.Context, event *domain.ThumbnailEvent) error {
		return enc.Encode(event)
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}
