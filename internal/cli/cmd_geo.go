package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/me-cbr/por-onde-andei/internal/geo"
)

func newGeoCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geo",
		Short: "Query the maps provider",
	}
	cmd.AddCommand(newGeoGeocodeCommand(deps))
	cmd.AddCommand(newGeoReverseCommand(deps))
	cmd.AddCommand(newGeoSuggestCommand(deps))
	cmd.AddCommand(newGeoNearbyCommand(deps))
	return cmd
}

func parseCoordinateArgs(args []string) (geo.Point, error) {
	latitude, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return geo.Point{}, usageErrorf("parse latitude %q: %v", args[0], err)
	}
	longitude, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return geo.Point{}, usageErrorf("parse longitude %q: %v", args[1], err)
	}
	return geo.Point{Latitude: latitude, Longitude: longitude}, nil
}

func newGeoGeocodeCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <address>",
		Short: "Resolve an address to coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				result, err := rt.maps.Geocode(ctx, args[0])
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, result)
				}
				_, err = fmt.Fprintf(deps.out, "%s\n  %.6f, %.6f\n", result.Address, result.Location.Latitude, result.Location.Longitude)
				return err
			})
		},
	}
}

func newGeoReverseCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <lat> <lng>",
		Short: "Resolve coordinates to ranked addresses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				point, err := parseCoordinateArgs(args)
				if err != nil {
					return err
				}
				results, err := rt.maps.ReverseGeocode(ctx, point)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, results)
				}
				if len(results) == 0 {
					_, err := fmt.Fprintln(deps.out, "no matches")
					return err
				}
				for _, r := range results {
					if _, err := fmt.Fprintln(deps.out, r.Address); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newGeoSuggestCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <partial-address>",
		Short: "Autocomplete a partial address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				// One token per invocation; interactive clients would
				// reuse it across keystrokes to share billing.
				suggestions, err := rt.maps.Autocomplete(ctx, args[0], uuid.NewString())
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, suggestions)
				}
				if len(suggestions) == 0 {
					_, err := fmt.Fprintln(deps.out, "no suggestions")
					return err
				}
				for _, s := range suggestions {
					if _, err := fmt.Fprintln(deps.out, s.Description); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newGeoNearbyCommand(deps commandDeps) *cobra.Command {
	var radius int
	var placeType string

	cmd := &cobra.Command{
		Use:   "nearby <lat> <lng>",
		Short: "Search for places around a coordinate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				point, err := parseCoordinateArgs(args)
				if err != nil {
					return err
				}
				effectiveRadius := radius
				if effectiveRadius <= 0 {
					effectiveRadius = rt.cfg.Maps.NearbyRadius
				}
				results, err := rt.maps.NearbyPlaces(ctx, point, effectiveRadius, placeType)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, results)
				}
				if len(results) == 0 {
					_, err := fmt.Fprintln(deps.out, "nothing nearby")
					return err
				}
				for _, r := range results {
					if _, err := fmt.Fprintf(deps.out, "%s  %s (rating %.1f)\n", r.Name, r.Address, r.Rating); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&radius, "radius", 0, "Search radius in meters (config default when omitted)")
	cmd.Flags().StringVar(&placeType, "type", "", "Restrict results to one place type")
	return cmd
}
