package main

import (
	"fmt"
	"os"
	"time"

	"dexsweep/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Account flags
	authService string
	username    string
	password    string
	location    string

	// Run switches
	debug    bool
	testOnly bool
	show     bool

	// Files
	configPath    string
	inventoryPath string
	catalogPath   string
	namesPath     string

	timeout time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd runs one sweep
var rootCmd = &cobra.Command{
	Use:   "dexsweep",
	Short: "Release low-quality specimens from a creature inventory",
	Long: `dexsweep fetches the inventory, classifies every specimen as keep or
release, and releases the rest one at a time.

A specimen is released when any individual stat is below the floor or its
overall quality is below the threshold. Names on the keep list and favorites
are never released, even when they are also on the transfer list.

Use --show to print the verdicts without releasing anything.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = cfg.Logging.BuildLogger(debug || cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runSweep,
}

// checkListsCmd validates the keep/transfer lists against the catalog
var checkListsCmd = &cobra.Command{
	Use:   "check-lists",
	Short: "Report list names that match no species",
	Long: `Compares every name on the keep and transfer lists with the species
catalog. Unknown names are reported with the closest catalog name, and names
on both lists are flagged (the keep list wins at run time).

Exits non-zero when any issue is found.`,
	Args: cobra.NoArgs,
	RunE: runCheckLists,
}

// locateCmd resolves the configured location
var locateCmd = &cobra.Command{
	Use:   "locate [location]",
	Short: "Resolve a location to coordinates",
	Long: `Resolves a place name through the geocoder, or parses a literal
"lat,lng" pair. Without an argument the configured location is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLocate,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&authService, "auth_service", "a", "", "Auth service (ptc or google)")
	flags.StringVarP(&username, "username", "u", "", "Username")
	flags.StringVarP(&password, "password", "p", "", "Password (prompted when empty)")
	flags.StringVarP(&location, "location", "l", "", "Location, a place name or lat,lng")
	flags.BoolVarP(&debug, "debug", "d", false, "Debug mode")
	flags.BoolVarP(&testOnly, "test", "t", false, "Only resolve the location")
	flags.BoolVarP(&show, "show", "s", false, "Show verdicts without releasing")
	flags.StringVar(&configPath, "config", config.DefaultConfigFile, "Config file (YAML or JSON)")
	flags.StringVar(&inventoryPath, "inventory", "", "Inventory snapshot to sweep")
	flags.StringVar(&catalogPath, "pokemon-data", "", "Species catalog file")
	flags.StringVar(&namesPath, "keep-data", "", "Keep/transfer list file")
	flags.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall run timeout")

	rootCmd.AddCommand(checkListsCmd)
	rootCmd.AddCommand(locateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlags lays the command-line values over the loaded config.
func applyFlags(c *config.Config) {
	if authService != "" {
		c.AuthService = authService
	}
	if username != "" {
		c.Username = username
	}
	if password != "" {
		c.Password = password
	}
	if location != "" {
		c.Location = location
	}
	if inventoryPath != "" {
		c.Data.Inventory = inventoryPath
	}
	if catalogPath != "" {
		c.Data.SpeciesCatalog = catalogPath
	}
	if namesPath != "" {
		c.Data.NameList = namesPath
	}
	c.Debug = c.Debug || debug
	c.Test = c.Test || testOnly
	c.Show = c.Show || show
}

// currentConfig returns the loaded config with flags applied.
func currentConfig() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	applyFlags(cfg)
	return cfg
}
