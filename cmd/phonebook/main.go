package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phonebook/internal/config"
	"phonebook/internal/gateway"
	"phonebook/internal/logging"
	"phonebook/internal/phonebook"
)

var (
	// Global flags
	verbose    bool
	configPath string
	baseURL    string
	timeout    time.Duration

	cfg    *config.Config
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "phonebook",
	Short: "Phonebook - keep a shared list of names and numbers",
	Long: `Phonebook manages the contacts stored behind a persons REST collection.

Adding a name that already exists (compared case-insensitively) offers to
replace its number instead of creating a duplicate.

Run without arguments to open the interactive page.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if baseURL != "" {
			loaded.Gateway.BaseURL = baseURL
		}
		if timeout > 0 {
			loaded.Gateway.Timeout = timeout.String()
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		opts := cfg.Logging
		if verbose {
			opts.DebugMode = true
			opts.Level = "debug"
		}
		if err := logging.Initialize(opts); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Get(logging.CategoryCLI)
		logging.Get(logging.CategoryBoot).Info("config loaded",
			zap.String("path", configPath),
			zap.String("base_url", cfg.Gateway.BaseURL))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive page
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug logs to the log file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "Persons collection endpoint (or set PHONEBOOK_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default from config)")

	listCmd.Flags().StringVarP(&searchTerm, "search", "s", "", "Only show names containing this text")
	addCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Replace an existing number without asking")
	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// reportedError is a failure whose notification was already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

// newReconciler wires the configured gateway, a fresh store and confirm.
func newReconciler(confirm phonebook.Confirmer) (*phonebook.Reconciler, error) {
	b := cfg.Gateway.Breaker
	client, err := gateway.New(cfg.Gateway.BaseURL,
		gateway.WithTimeout(cfg.GetGatewayTimeout()),
		gateway.WithLogger(logging.Get(logging.CategoryGateway)),
		gateway.WithBreaker(gateway.BreakerSettings{
			MaxRequests:      b.MaxRequests,
			Interval:         cfg.GetBreakerInterval(),
			Timeout:          cfg.GetBreakerTimeout(),
			FailureThreshold: b.FailureThreshold,
			MinRequests:      b.MinRequests,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	store := phonebook.NewStore(
		phonebook.WithNotificationDuration(cfg.GetNotificationDuration()),
		phonebook.WithLogger(logging.Get(logging.CategoryStore)),
	)
	return phonebook.NewReconciler(client, store, confirm,
		phonebook.WithLogger(logging.Get(logging.CategoryReconcile))), nil
}
