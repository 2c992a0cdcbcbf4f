package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/discovery"
	"github.com/mohammed-shakir/recycler-discovery/internal/geo"
	"github.com/mohammed-shakir/recycler-discovery/internal/mapview"
)

type scanReport struct {
	Snapshot discovery.Snapshot `json:"snapshot"`
	Clusters []mapview.Cluster  `json:"clusters,omitempty"`
}

func newScanCmd(a *app) *cobra.Command {
	var raw, geojsonOut string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the discovery screen once and print its settled state",
		Long: `scan activates a discovery screen, toggles the given material types one
at a time in ascending id order, waits for every load to settle and prints the resulting snapshot.`,
		Example: `  discovery scan
  discovery scan --toggle 1,3 --geojson map.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			toggles, err := model.ParseSelection(raw)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			surface := mapview.NewGeoJSONSurface(a.cfg.Map.H3Res)
			c := a.newController(nil, surface)
			defer c.Teardown()

			c.Activate(ctx)
			if err := settle(c); err != nil {
				return err
			}
			for _, id := range toggles.IDs() {
				c.Toggle(id)
				if err := settle(c); err != nil {
					return err
				}
			}

			rep := scanReport{Snapshot: c.Snapshot()}
			if v, ok := c.View(); ok {
				rep.Clusters = v.Clusters()
			}
			if geojsonOut != "" {
				b, ok := surface.Bytes()
				if !ok {
					return fmt.Errorf("map not rendered; nothing written to %s", geojsonOut)
				}
				if err := os.WriteFile(geojsonOut, b, 0o644); err != nil {
					return fmt.Errorf("write geojson: %w", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&raw, "toggle", "", "comma separated material type ids toggled after activation")
	cmd.Flags().StringVar(&geojsonOut, "geojson", "", "write the rendered map as GeoJSON to this path")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall scan timeout")
	return cmd
}

// settle waits for pending loads. Denials and fetch failures are part of the
// screen state, not command failures.
func settle(c *discovery.Controller) error {
	err := c.Wait()
	switch {
	case err == nil, errors.Is(err, geo.ErrPermissionDenied), errors.Is(err, discovery.ErrFetch):
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("scan timed out: %w", err)
	default:
		return err
	}
}
