package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/me-cbr/por-onde-andei/internal/activity"
	"github.com/me-cbr/por-onde-andei/internal/app"
	"github.com/me-cbr/por-onde-andei/internal/storage"
)

type placeView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	PhotoURI  string   `json:"photo_uri"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Date      string   `json:"date"`
	PhotoDate string   `json:"photo_date"`
	Favorite  bool     `json:"favorite"`
}

func viewPlace(place *storage.Place) placeView {
	view := placeView{
		ID:        place.ID,
		Title:     place.Title,
		PhotoURI:  place.PhotoURI,
		Address:   place.Address,
		Date:      place.Date.Format(time.RFC3339),
		PhotoDate: place.PhotoDate.Format(time.RFC3339),
		Favorite:  place.IsFavorite,
	}
	if place.Location != nil {
		lat, lng := place.Location.Latitude, place.Location.Longitude
		view.Latitude = &lat
		view.Longitude = &lng
	}
	return view
}

func newPlaceCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place",
		Short: "Manage saved places",
	}
	cmd.AddCommand(newPlaceAddCommand(deps))
	cmd.AddCommand(newPlaceListCommand(deps, "list", "List your places, newest first", false))
	cmd.AddCommand(newPlaceListCommand(deps, "favorites", "List your favorite places, newest first", true))
	cmd.AddCommand(newPlaceShowCommand(deps))
	cmd.AddCommand(newPlaceEditCommand(deps))
	cmd.AddCommand(newPlaceFavoriteCommand(deps))
	cmd.AddCommand(newPlaceRemoveCommand(deps))
	return cmd
}

func newPlaceAddCommand(deps commandDeps) *cobra.Command {
	var (
		photo     string
		address   string
		latitude  float64
		longitude float64
		photoDate string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Save a place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}

				req := app.CreatePlaceRequest{
					Title:    args[0],
					PhotoURI: photo,
					Address:  address,
				}
				if cmd.Flags().Changed("lat") {
					req.Latitude = &latitude
				}
				if cmd.Flags().Changed("lng") {
					req.Longitude = &longitude
				}
				if photoDate != "" {
					takenAt, err := time.Parse(time.RFC3339, photoDate)
					if err != nil {
						return usageErrorf("parse --photo-date: %v", err)
					}
					req.PhotoTakenAt = takenAt
				}

				place, err := rt.places.Create(ctx, account.ID, req)
				if err != nil {
					return err
				}

				rt.logger.Info("place saved", "place_id", place.ID, "account_id", account.ID)
				rt.note(ctx, activity.Event{
					Action:   activity.ActionPlaceSave,
					OwnerID:  account.ID,
					TargetID: place.ID,
					Details:  map[string]string{"title": place.Title},
				})
				if deps.globals.JSON {
					return printJSON(deps.out, viewPlace(place))
				}
				_, err = fmt.Fprintf(deps.out, "saved %q (id %s) at %s\n", place.Title, place.ID, place.Address)
				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&photo, "photo", "", "Photo URI for the place")
	flags.StringVar(&address, "address", "", "Address (looked up from coordinates when omitted)")
	flags.Float64Var(&latitude, "lat", 0, "Latitude in degrees")
	flags.Float64Var(&longitude, "lng", 0, "Longitude in degrees")
	flags.StringVar(&photoDate, "photo-date", "", "When the photo was taken, RFC 3339")
	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

func newPlaceListCommand(deps commandDeps, use, short string, favoritesOnly bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}

				var places []storage.Place
				if favoritesOnly {
					places, err = rt.places.ListFavorites(ctx, account.ID)
				} else {
					places, err = rt.places.List(ctx, account.ID)
				}
				if err != nil {
					return err
				}

				if deps.globals.JSON {
					views := make([]placeView, 0, len(places))
					for i := range places {
						views = append(views, viewPlace(&places[i]))
					}
					return printJSON(deps.out, views)
				}

				if len(places) == 0 {
					_, err := fmt.Fprintln(deps.out, "no places saved")
					return err
				}
				for i := range places {
					marker := " "
					if places[i].IsFavorite {
						marker = "*"
					}
					if _, err := fmt.Fprintf(deps.out, "%s %s  %s  %s\n", marker, places[i].ID, places[i].Title, places[i].Address); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newPlaceShowCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one saved place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				place, err := rt.places.Get(ctx, account.ID, args[0])
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, viewPlace(place))
				}
				_, err = fmt.Fprintf(deps.out, "%s\n  address: %s\n  photo: %s\n  date: %s\n  favorite: %v\n",
					place.Title, place.Address, place.PhotoURI, place.Date.Format(time.RFC3339), place.IsFavorite)
				return err
			})
		},
	}
}

func newPlaceEditCommand(deps commandDeps) *cobra.Command {
	var title string
	var address string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a place's title and address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				if err := rt.places.Update(ctx, account.ID, app.UpdatePlaceRequest{
					ID:      args[0],
					Title:   title,
					Address: address,
				}); err != nil {
					return err
				}
				rt.note(ctx, activity.Event{Action: activity.ActionPlaceEdit, OwnerID: account.ID, TargetID: args[0]})
				_, err = fmt.Fprintln(deps.out, "place updated")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&address, "address", "", "New address")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPlaceFavoriteCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle a place's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				favorite, err := rt.places.ToggleFavorite(ctx, account.ID, args[0])
				if err != nil {
					return err
				}
				rt.note(ctx, activity.Event{
					Action:   activity.ActionPlaceFavorite,
					OwnerID:  account.ID,
					TargetID: args[0],
					Details:  map[string]bool{"favorite": favorite},
				})
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]bool{"favorite": favorite})
				}
				state := "unfavorited"
				if favorite {
					state = "favorited"
				}
				_, err = fmt.Fprintf(deps.out, "%s %s\n", state, args[0])
				return err
			})
		},
	}
}

func newPlaceRemoveCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				if err := rt.places.Delete(ctx, account.ID, args[0]); err != nil {
					return err
				}
				rt.note(ctx, activity.Event{Action: activity.ActionPlaceDelete, OwnerID: account.ID, TargetID: args[0]})
				_, err = fmt.Fprintf(deps.out, "deleted %s\n", args[0])
				return err
			})
		},
	}
}
