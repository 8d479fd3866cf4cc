package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/areo/internal/database"
	"github.com/Mr-Dark-debug/areo/pkg/jsonutil"
	"github.com/Mr-Dark-debug/areo/pkg/timeutil"
)

// placesCommand manages saved places.
func (c *CLI) placesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "places",
		Short: "Manage saved places",
	}

	cmd.AddCommand(c.placesListCommand())
	cmd.AddCommand(c.placesAddCommand())
	cmd.AddCommand(c.placesRemoveCommand())

	return cmd
}

func (c *CLI) placesListCommand() *cobra.Command {
	var search string
	var builtin bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var places []*database.Place
			if search != "" {
				places, err = store.SearchPlaces(search, 0)
			} else {
				places, err = store.ListPlaces()
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				if places == nil {
					places = []*database.Place{}
				}
				return jsonutil.Encode(w, places)
			}
			if builtin {
				for _, p := range cfg.Places {
					fmt.Fprintf(w, "  %-24s %8.2f %7.2f %10.0f m  %s\n",
						p.Name, p.Longitude, p.Latitude, p.Height, styleDim.Render("built in"))
				}
			}
			if len(places) == 0 {
				printInfo(w, "No saved places")
				return nil
			}
			for _, p := range places {
				fmt.Fprintf(w, "  %-24s %8.2f %7.2f %10.0f m  %s\n",
					p.Name, p.Longitude, p.Latitude, p.Height, styleDim.Render(p.ID))
				if p.Note != "" {
					printDetail(w, "%s (saved %s)", p.Note, timeutil.RelativeTime(p.CreatedAt))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "only places whose name or note matches")
	cmd.Flags().BoolVar(&builtin, "builtin", false, "include the configured gazetteer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print saved places as JSON")
	return cmd
}

func (c *CLI) placesAddCommand() *cobra.Command {
	var p database.Place

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Save a named camera position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.Latitude < -90 || p.Latitude > 90 {
				return fmt.Errorf("latitude %.2f out of range", p.Latitude)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			p.Name = args[0]
			if err := store.InsertPlace(&p); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Saved %s", p.Name)
			printDetail(cmd.OutOrStdout(), "id: %s", p.ID)
			return nil
		},
	}

	cmd.Flags().Float64Var(&p.Longitude, "lon", 0, "longitude in degrees")
	cmd.Flags().Float64Var(&p.Latitude, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&p.Height, "height", 1_000_000, "camera height in meters")
	cmd.Flags().StringVar(&p.Note, "note", "", "free-form note")
	return cmd
}

func (c *CLI) placesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a saved place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeletePlace(args[0]); err != nil {
				return fmt.Errorf("delete place %s: %w", args[0], err)
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}
