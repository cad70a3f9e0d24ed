package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joshuapare/blockvec/internal/logger"
	"github.com/joshuapare/blockvec/mem/alloc"
)

// envPrefix prefixes environment variables bound to flags, e.g. BLOCKVEC_BACKING.
const envPrefix = "BLOCKVEC"

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	cfgFile string
	backing string
	limit   int64
)

var rootCmd = &cobra.Command{
	Use:   "blockvec",
	Short: "Exercise the block-list allocator and growable array",
	Long: `blockvec drives a growable array backed by a first-fit free-list
allocator. It runs the demonstration workload and shows how the allocator
splits and reuses blocks.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return err
		}
		initLogging()
		return nil
	},
}

// initLogging enables debug logging, allocator events included, when
// --verbose is given or BLOCKVEC_LOG_ALLOC is set.
func initLogging() {
	debug := verbose || os.Getenv(logger.EnvLogAlloc) != ""
	logger.Init(logger.Options{
		Enabled: debug,
		Level:   slog.LevelDebug,
		JSON:    jsonOut,
	})
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and allocator debug logs")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&backing, "backing", "heap", "Region source for the allocator: heap or mmap")
	rootCmd.PersistentFlags().Int64Var(&limit, "limit", 0, "Cap on bytes the allocator may acquire (0 = unlimited)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initializeConfig layers config file and BLOCKVEC_* environment values under
// any flags not given on the command line.
func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return bindFlags(cmd, v)
}

// bindFlags applies each viper value to its cobra flag when the flag was not set.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores.
		if strings.Contains(f.Name, "-") {
			envVar := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, envVar); err != nil {
				bindErr = fmt.Errorf("bind env %s: %w", envVar, err)
				return
			}
		}

		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				bindErr = fmt.Errorf("apply config to --%s: %w", f.Name, err)
			}
		}
	})
	return bindErr
}

// newAllocator builds the BlockList selected by the global flags.
func newAllocator() (*alloc.BlockList, error) {
	b, err := alloc.ParseBacking(backing)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("--limit must not be negative, got %d", limit)
	}
	return alloc.New(&alloc.Config{Name: "blockvec", Backing: b, Limit: limit}), nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
