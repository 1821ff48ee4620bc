package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/flexdb/flexdb-go/internal/config"
	"github.com/flexdb/flexdb-go/pkg/flexdb"
)

var (
	verbose    bool
	configPath string
	apiKey     string
	endpoint   string
	output     string

	appFs   afero.Fs = afero.NewOsFs()
	cfg     config.CLI
	cfgFile string
	client *flexdb.Client
	logger hclog.Logger = hclog.NewNullLogger()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flexdb",
	Short: "Command line client for FlexDB stores and collections",
	Long: `flexdb manages FlexDB stores and the JSON documents inside their collections.

Settings are read from the config file, then FLEXDB_API_KEY / FLEXDB_ENDPOINT,
then flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&configPath, "config", "", "Config file (default $FLEXDB_CONFIG or ~/.config/flexdb/config.yaml)")
	flags.StringVar(&apiKey, "api-key", "", "Account API key")
	flags.StringVar(&endpoint, "endpoint", "", "Service base URL")
	flags.StringVarP(&output, "output", "o", "", "Output format: json or yaml")
}

func setup(cmd *cobra.Command, args []string) error {
	level := hclog.Warn
	if verbose {
		level = hclog.Debug
	}
	logger = hclog.New(&hclog.LoggerOptions{
		Name:   "flexdb",
		Level:  level,
		Output: cmd.ErrOrStderr(),
	})

	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultCLIPath(); err != nil {
			logger.Debug("no default config path", "error", err)
		}
	}

	loaded, err := config.LoadCLI(appFs, path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-key") {
		loaded.APIKey = apiKey
	}
	if cmd.Flags().Changed("endpoint") {
		loaded.Endpoint = endpoint
	}
	if cmd.Flags().Changed("output") {
		loaded.Output = output
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded
	cfgFile = path

	client, err = flexdb.New(cfg.Client(),
		flexdb.WithLogger(logger.Named("sdk")),
		flexdb.WithUserAgent("flexdb-cli/"+version),
		flexdb.WithLookupPolicy(flexdb.FailuresAsErrors),
	)
	if err != nil {
		return err
	}
	logger.Debug("client ready", "endpoint", client.Endpoint(), "config", path)
	return nil
}
