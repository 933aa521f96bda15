package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dexsweep/internal/config"
	"dexsweep/internal/geo"
	"dexsweep/internal/inventory"
	"dexsweep/internal/sweep"
	"dexsweep/internal/triage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	c := currentConfig()
	if c.Password == "" {
		pw, err := promptPassword()
		if err != nil {
			return err
		}
		c.Password = pw
	}
	if err := c.Validate(); err != nil {
		return err
	}

	pos, err := resolveLocation(ctx, c, c.Location)
	if err != nil {
		return err
	}
	logger.Info("Location", zap.String("position", pos.String()))
	if c.Test {
		return nil
	}

	client, err := inventory.LoadSnapshot(c.Data.Inventory, logger)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx, inventory.Session{
		AuthService: c.AuthService,
		Username:    c.Username,
		Password:    c.Password,
		Latitude:    pos.Latitude,
		Longitude:   pos.Longitude,
		Altitude:    pos.Altitude,
	}); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}

	engine, err := loadEngine(c)
	if err != nil {
		return err
	}

	s := sweep.New(client, engine,
		sweep.WithDryRun(c.Show),
		sweep.WithReleaseInterval(c.GetReleaseInterval()),
		sweep.WithLogger(logger))
	report, runErr := s.Run(ctx)
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(report))
	}
	return runErr
}

// loadEngine reads the reference data and builds the triage engine.
func loadEngine(c *config.Config) (*triage.Engine, error) {
	catalog, err := triage.LoadCatalog(c.Data.SpeciesCatalog)
	if err != nil {
		return nil, err
	}
	names, err := triage.LoadNameList(c.Data.NameList)
	if err != nil {
		return nil, err
	}
	logger.Debug("Reference data loaded",
		zap.Int("species", catalog.Len()),
		zap.Int("always_keep", len(names.AlwaysKeep)),
		zap.Int("always_transfer", len(names.AlwaysRelease)))
	return triage.NewEngine(catalog, names, c.Triage)
}

func resolveLocation(ctx context.Context, c *config.Config, loc string) (geo.Position, error) {
	var g geo.Geocoder
	if _, ok := geo.ParseCoordinates(loc); !ok {
		g = geo.NewGoogleGeocoder(c.Geocoding.BaseURL, c.Geocoding.APIKey, c.GetGeocodingTimeout())
	}
	pos, err := geo.Resolve(ctx, g, loc, logger)
	if err != nil {
		return geo.Position{}, fmt.Errorf("failed to resolve location %q: %w", loc, err)
	}
	return pos, nil
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password not configured (use --password or set DEXSWEEP_PASSWORD)")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
