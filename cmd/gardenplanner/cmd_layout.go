package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gardenplanner/internal/blob"
	"gardenplanner/internal/core"
	"gardenplanner/pkg/domain"
)

func parseInts(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, raw := range args {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, &domain.ValidationError{Reason: fmt.Sprintf("%q is not a whole number", raw)}
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(args ...string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, raw := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, &domain.ValidationError{Reason: fmt.Sprintf("%q is not a number", raw)}
		}
		out[i] = v
	}
	return out, nil
}

// listNamed prints names with the active one marked.
func (a *app) listNamed(names []string, active string, hasActive bool) {
	for _, name := range names {
		mark := " "
		if hasActive && name == active {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s\n", mark, name)
	}
}

func (a *app) gardensCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "gardens", Short: "Manage garden grids"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List gardens; the active one is marked",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			active, ok := a.svc.Gardens().Active()
			a.listNamed(a.svc.Gardens().Names(), active, ok)
			return nil
		},
	}

	var in core.GardenInput
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty grid and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			g, err := a.svc.Gardens().Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created garden %s %dx%d\n", g.Name, g.Width, g.Height)
			return nil
		},
	}
	createCmd.Flags().IntVar(&in.Width, "width", 10, "columns")
	createCmd.Flags().IntVar(&in.Height, "height", 10, "rows")
	createCmd.Flags().IntVar(&in.CellSize, "cell-size", core.DefaultCellSize, "cell size in pixels")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Draw a garden grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, ok := a.svc.Gardens().Get(args[0])
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityGarden, ID: args[0]}
			}
			a.title("%s (%dx%d)", g.Name, g.Width, g.Height)
			legend := map[string]string{}
			for _, row := range g.Grid {
				var b strings.Builder
				for _, cell := range row {
					if cell == nil {
						b.WriteString(" .")
						continue
					}
					mark := "#"
					if r := []rune(cell.Name); len(r) > 0 {
						mark = string(r[0])
					}
					b.WriteString(" " + mark)
					legend[mark] = cell.Name
				}
				fmt.Fprintln(a.out, b.String())
			}
			for _, k := range slices.Sorted(maps.Keys(legend)) {
				fmt.Fprintf(a.out, "%s = %s\n", k, legend[k])
			}
			return nil
		},
	}

	var cell domain.Cell
	setCmd := &cobra.Command{
		Use:   "set <garden> <x> <y> <name>",
		Short: "Fill a cell",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseInts(args[1], args[2])
			if err != nil {
				return err
			}
			cell.Name = args[3]
			return a.svc.Gardens().SetCell(cmd.Context(), args[0], xy[0], xy[1], cell)
		},
	}
	setCmd.Flags().StringVar(&cell.Color, "color", "#4caf50", "cell color")
	setCmd.Flags().StringVar(&cell.PlantedAt, "planted", "", "planting date YYYY-MM-DD")

	clearCmd := &cobra.Command{
		Use:   "clear <garden> <x> <y>",
		Short: "Empty a cell",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseInts(args[1], args[2])
			if err != nil {
				return err
			}
			return a.svc.Gardens().ClearCell(cmd.Context(), args[0], xy[0], xy[1])
		},
	}

	resizeCmd := &cobra.Command{
		Use:   "resize <garden> <width> <height>",
		Short: "Resize a grid, keeping the overlapping cells",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			wh, err := parseInts(args[1], args[2])
			if err != nil {
				return err
			}
			return a.svc.Gardens().Resize(cmd.Context(), args[0], wh[0], wh[1])
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a garden",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Gardens().Delete(cmd.Context(), args[0])
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a garden active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Gardens().SetActive(cmd.Context(), args[0])
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [name]",
		Short: "Export every garden, or one garden by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				info blob.Info
				err  error
			)
			if len(args) == 1 {
				info, err = a.svc.Gardens().ExportGarden(cmd.Context(), args[0])
			} else {
				info, err = a.svc.Gardens().Export(cmd.Context())
			}
			if err != nil {
				return err
			}
			a.printExport(info)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import gardens, replacing gardens with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importFile(args[0], func(r io.Reader) (int, error) {
				return a.svc.Gardens().Import(cmd.Context(), r)
			})
		},
	}

	cmd.AddCommand(listCmd, createCmd, showCmd, setCmd, clearCmd, resizeCmd, rmCmd, useCmd, exportCmd, importCmd)
	return cmd
}

func (a *app) designsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "designs", Short: "Manage visual bed designs"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List designs; the active one is marked",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			active, ok := a.svc.Designs().Active()
			a.listNamed(a.svc.Designs().Names(), active, ok)
			return nil
		},
	}

	var orientation string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty design and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.svc.Designs().Create(cmd.Context(), args[0], domain.Orientation(orientation))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created design %s (%s)\n", d.Name, d.Orientation)
			return nil
		},
	}
	createCmd.Flags().StringVar(&orientation, "orientation", string(domain.OrientationPortrait), "portrait or landscape")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "List the beds placed in a design",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			d, ok := a.svc.Designs().Get(args[0])
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityDesign, ID: args[0]}
			}
			a.title("%s (%s)", d.Name, d.Orientation)
			tw := a.table()
			fmt.Fprintln(tw, "ID\tNAME\tX\tY\tWIDTH\tHEIGHT\tSAVED BED")
			for _, b := range d.Beds {
				saved := ""
				if b.SavedBedID != nil {
					saved = strconv.FormatInt(*b.SavedBedID, 10)
				}
				fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%g\t%s\n", b.ID, b.Name, b.X, b.Y, b.Width, b.Height, saved)
			}
			return tw.Flush()
		},
	}

	var placed core.PlacedBedInput
	addCmd := &cobra.Command{
		Use:   "add-bed <design> <name>",
		Short: "Draw a free-standing bed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			placed.Name = args[1]
			b, err := a.svc.Designs().AddBed(cmd.Context(), args[0], placed)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "placed %s as %s\n", b.Name, b.ID)
			return nil
		},
	}
	addCmd.Flags().Float64Var(&placed.X, "x", 0, "left edge")
	addCmd.Flags().Float64Var(&placed.Y, "y", 0, "top edge")
	addCmd.Flags().Float64Var(&placed.Width, "width", 1, "width in metres")
	addCmd.Flags().Float64Var(&placed.Height, "height", 1, "height in metres")

	placeCmd := &cobra.Command{
		Use:   "place <design> <bed-id> <x> <y>",
		Short: "Place a saved bed",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			bedID, err := parseBedID(args[1])
			if err != nil {
				return err
			}
			xy, err := parseFloats(args[2], args[3])
			if err != nil {
				return err
			}
			b, err := a.svc.PlaceSavedBed(cmd.Context(), args[0], bedID, xy[0], xy[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "placed %s as %s\n", b.Name, b.ID)
			return nil
		},
	}

	moveCmd := &cobra.Command{
		Use:   "move <design> <placed-id> <x> <y>",
		Short: "Move a placed bed",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseFloats(args[2], args[3])
			if err != nil {
				return err
			}
			return a.svc.Designs().MoveBed(cmd.Context(), args[0], args[1], xy[0], xy[1])
		},
	}

	resizeCmd := &cobra.Command{
		Use:   "resize-bed <design> <placed-id> <width> <height>",
		Short: "Resize a placed bed",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			wh, err := parseFloats(args[2], args[3])
			if err != nil {
				return err
			}
			return a.svc.Designs().ResizeBed(cmd.Context(), args[0], args[1], wh[0], wh[1])
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove-bed <design> <placed-id>",
		Short: "Remove a placed bed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Designs().RemoveBed(cmd.Context(), args[0], args[1])
		},
	}

	orientCmd := &cobra.Command{
		Use:   "orientation <design> <portrait|landscape>",
		Short: "Change the page orientation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Designs().SetOrientation(cmd.Context(), args[0], domain.Orientation(args[1]))
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Designs().Delete(cmd.Context(), args[0])
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a design active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Designs().SetActive(cmd.Context(), args[0])
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every design",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.svc.Designs().Export(cmd.Context())
			if err != nil {
				return err
			}
			a.printExport(info)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import designs, replacing designs with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importFile(args[0], func(r io.Reader) (int, error) {
				return a.svc.Designs().Import(cmd.Context(), r)
			})
		},
	}

	cmd.AddCommand(listCmd, createCmd, showCmd, addCmd, placeCmd, moveCmd, resizeCmd, removeCmd, orientCmd, rmCmd, useCmd, exportCmd, importCmd)
	return cmd
}
