package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/itrack/internal/logging"
	"github.com/joescharf/itrack/internal/output"
	"github.com/joescharf/itrack/internal/scenario"
	"github.com/joescharf/itrack/internal/tracker"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
	dryRun  bool
	strict  bool
)

var rootCmd = &cobra.Command{
	Use:   "itrack",
	Short: "In-memory issue tracker driven by scenario scripts",
	Long: `itrack replays YAML scenario scripts against a fresh in-memory issue
tracking engine. Scenarios add users and issues, assign them, move them
through todo/in_progress/done, attach comments and run filtered queries.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Validate scenarios without running them")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Report unknown issues and users as errors")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/itrack/config.yaml)")

	_ = viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict"))
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDirFunc(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ITRACK")
	viper.AutomaticEnv()

	setConfigDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("id_format", "uuid")
	viper.SetDefault("strict", false)
	viper.SetDefault("time_format", time.RFC3339)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// engineOptions builds tracker options from the effective configuration.
func engineOptions() ([]tracker.Option, error) {
	ids, err := tracker.GeneratorFor(viper.GetString("id_format"))
	if err != nil {
		return nil, err
	}

	level := viper.GetString("log_level")
	if verbose {
		level = "debug"
	}

	return []tracker.Option{
		tracker.WithIDGenerator(ids),
		tracker.WithLogger(logging.New(ui.ErrOut, level)),
		tracker.WithStrict(viper.GetBool("strict")),
	}, nil
}

// replay loads a scenario file and runs it against a fresh engine.
func replay(path string, extra ...tracker.Option) (*scenario.Result, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	opts, err := engineOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)

	ui.VerboseLog("Replaying %s (%d steps)", s.Name, len(s.Steps))
	r, err := scenario.Run(s, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return r, nil
}

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "itrack"), nil
}
