package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/droste/internal/config"
	"github.com/MeKo-Tech/droste/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "droste",
	Short: "Recursive picture-in-picture (Droste effect) transforms",
	Long: `droste renders the Droste effect: a picture nested recursively inside itself.
It computes the perspective transform that maps the picture onto a
quadrilateral inside itself and composes it into a stack of nested copies.

This tool provides:
- The 3x3 homography and its CSS matrix3d() form for four points
- The full transform stack for a recursion depth
- Rendering of the nested image and of zoom animation frames
- Batch rendering of whole directories
- An HTTP and WebSocket service streaming stacks and animation frames

Examples:
  droste matrix --width 100 --height 100 --points 20,20,80,20,20,80,80,80
  droste stack --depth 8 --relative --points 0.2,0.2,0.8,0.2,0.2,0.8,0.8,0.8 --format css
  droste render photo.jpg --output droste.png --overlay
  droste batch photos/ --output-dir out --recursive
  droste serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// --version short-circuits everything else
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			b := version.Get()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "droste version %s\n", b.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", b.Commit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", b.Date)
			return nil
		}
		// Without a subcommand there is nothing to do but show usage
		return cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo records build metadata injected by the linker.
func SetVersionInfo(ver, commit, date string) {
	version.Set(version.Build{Version: ver, Commit: commit, Date: date})
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags shared by every subcommand

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/droste, /etc/droste)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Initialize configuration if not already done
		if globalConfig == nil {
			initConfig()
		}

		// Determine log level from config
		var logLevel slog.Level

		// --verbose wins over --log-level
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			// Parse log-level from config
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		// Logs go to stderr so json/yaml/css output on stdout stays parseable.
		logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and ENV variables. A fresh viper instance
// per run keeps a previous --config file from leaking into the next run.
func initConfig() {
	v := viper.New()

	// Bind flags to viper
	if err := v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(err)
	}
	if err := v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}
	configLoader = config.NewLoaderWithViper(v)

	var err error
	if cfgFile != "" {
		// Use config file from the flag
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		// Search for config in default locations
		globalConfig, err = configLoader.Load()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the configuration including bound flags.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	// Unmarshal again so flags bound after the initial load are included
	var cfg config.Config
	if err := GetConfigLoader().Viper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig // fall back to the config read at startup
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
