// Package cli wires the engine into the landsafe command line tool.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/landsafe/landsafe/internal/logging"
	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/pipeline"
	"github.com/landsafe/landsafe/internal/store"
)

var (
	cfgFile string
	verbose bool
	dsn     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "landsafe",
	Short: "Landsafe - spatial conflict detection and claim protection",
	Long: `Landsafe checks land claims for boundary conflicts, profiles grantor
history, and protects verified claims with a priority-of-sale record.

It does not adjudicate ownership. It surfaces overlap risk, double-sale
patterns, and review-worthy signals, and it guarantees that at most one
claim can lock any materially overlapping region.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("landsafe v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.landsafe/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (default: in-process memory store)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.dsn", rootCmd.PersistentFlags().Lookup("dsn"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and LANDSAFE_* environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.landsafe")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("LANDSAFE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if cfg.Narrative.Provider != "" && cfg.Narrative.APIKey == "" {
		cfg.Narrative.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// openStore selects the backend: postgres behind a DSN, memory otherwise
func openStore(cfg *model.Config) (store.ClaimStore, error) {
	if cfg.Store.DSN == "" {
		return store.NewMemory(), nil
	}
	pg, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(context.Background()); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return pg, nil
}

// logMode maps the verbose flag onto the logger
func logMode(cfg *model.Config) string {
	if cfg.Output.Verbose {
		return "development"
	}
	return "production"
}

// buildEngine assembles the store, logger, and engine for one command run
func buildEngine(cfg *model.Config) (*pipeline.Engine, *logging.Logger, func(), error) {
	log, err := logging.New(logMode(cfg))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	engine, err := pipeline.NewEngine(st, cfg, log)
	if err != nil {
		_ = st.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = st.Close()
		log.Sync()
	}
	return engine, log, cleanup, nil
}
