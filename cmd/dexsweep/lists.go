package main

import (
	"context"
	"fmt"

	"dexsweep/internal/triage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCheckLists(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	catalog, err := triage.LoadCatalog(c.Data.SpeciesCatalog)
	if err != nil {
		return err
	}
	names, err := triage.LoadNameList(c.Data.NameList)
	if err != nil {
		return err
	}

	issues := triage.CheckLists(catalog, names)
	out := cmd.OutOrStdout()
	if len(issues) == 0 {
		fmt.Fprintln(out, okStyle.Render("Lists are consistent with the species catalog."))
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintln(out, warnStyle.Render(issue.String()))
	}
	logger.Warn("List check found issues", zap.Int("issues", len(issues)))
	return fmt.Errorf("%d list issue(s) found", len(issues))
}

func runLocate(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	loc := c.Location
	if len(args) == 1 {
		loc = args[0]
	}
	if loc == "" {
		return fmt.Errorf("location not configured (use --location or pass it as an argument)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.GetGeocodingTimeout())
	defer cancel()

	pos, err := resolveLocation(ctx, c, loc)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pos.String())
	if pos.Address != "" {
		fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(pos.Address))
	}
	return nil
}
