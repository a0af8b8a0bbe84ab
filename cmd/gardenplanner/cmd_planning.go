package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gardenplanner/internal/blob"
	"gardenplanner/internal/core"
	"gardenplanner/pkg/domain"
)

func parseBedID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: "bed id", Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return id, nil
}

func (a *app) bedsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "beds", Short: "Manage saved beds"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved beds",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tw := a.table()
			fmt.Fprintln(tw, "ID\tNAME\tWIDTH\tLENGTH\tPLANTS")
			for _, b := range a.svc.Beds().List() {
				fmt.Fprintf(tw, "%d\t%s\t%g\t%g\t%s\n", b.ID, b.Name, b.Width, b.Length, strings.Join(b.Plants, ","))
			}
			return tw.Flush()
		},
	}

	var in struct {
		name, description string
		width, length     float64
		plants            []string
	}
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new bed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bed, err := a.svc.Beds().Create(cmd.Context(), core.BedInput{
				Name:        in.name,
				Width:       in.width,
				Length:      in.length,
				Description: in.description,
				Plants:      in.plants,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created bed %d %s\n", bed.ID, bed.Name)
			return nil
		},
	}
	addCmd.Flags().StringVar(&in.name, "name", "", "bed name")
	addCmd.Flags().Float64Var(&in.width, "width", 0, "width in metres")
	addCmd.Flags().Float64Var(&in.length, "length", 0, "length in metres")
	addCmd.Flags().StringVar(&in.description, "description", "", "free text")
	addCmd.Flags().StringSliceVar(&in.plants, "plant", nil, "plant id (repeatable)")

	var upd struct {
		name, description string
		width, length     float64
	}
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a saved bed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBedID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			bed, err := a.svc.Beds().Update(cmd.Context(), id, func(b *domain.Bed) error {
				if flags.Changed("name") {
					b.Name = upd.name
				}
				if flags.Changed("width") {
					b.Width = upd.width
				}
				if flags.Changed("length") {
					b.Length = upd.length
				}
				if flags.Changed("description") {
					b.Description = upd.description
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "updated bed %d %s\n", bed.ID, bed.Name)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&upd.name, "name", "", "bed name")
	updateCmd.Flags().Float64Var(&upd.width, "width", 0, "width in metres")
	updateCmd.Flags().Float64Var(&upd.length, "length", 0, "length in metres")
	updateCmd.Flags().StringVar(&upd.description, "description", "", "free text")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved bed; plans keep their references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBedID(args[0])
			if err != nil {
				return err
			}
			return a.svc.Beds().Delete(cmd.Context(), id)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every bed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.svc.Beds().Export(cmd.Context())
			if err != nil {
				return err
			}
			a.printExport(info)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Append beds from an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importFile(args[0], func(r io.Reader) (int, error) {
				return a.svc.Beds().Import(cmd.Context(), r)
			})
		},
	}

	cmd.AddCommand(listCmd, addCmd, updateCmd, rmCmd, exportCmd, importCmd)
	return cmd
}

func (a *app) plansCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "plans", Short: "Manage year plans"}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List plans; the active one is marked",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			active, _ := a.svc.Plans().Active().PlanName()
			for _, name := range a.svc.Plans().Names() {
				mark := " "
				if name == active {
					mark = "*"
				}
				fmt.Fprintf(a.out, "%s %s\n", mark, name)
			}
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty plan and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.Plans().CreatePlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created plan %s\n", p.Name)
			return nil
		},
	}

	copyCmd := &cobra.Command{
		Use:   "copy <source> <dest>",
		Short: "Copy a plan's bed memberships and dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.Plans().CopyPlan(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "copied %s to %s\n", args[0], p.Name)
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.Plans().RenamePlan(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "renamed %s to %s\n", args[0], p.Name)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.svc.Plans().DeletePlan(cmd.Context(), args[0])
		},
	}

	useCmd := &cobra.Command{
		Use:   "use [name]",
		Short: "Select the active plan; without a name every plant is shown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := domain.AllPlans()
			if len(args) == 1 {
				sel = domain.SelectPlan(args[0])
			}
			if err := a.svc.Plans().SetActive(cmd.Context(), sel); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "active plan %s\n", sel)
			return nil
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <plan> <bed-id> <plant-id>",
		Short: "Add a plant to a bed in a plan, or remove it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bedID, err := parseBedID(args[1])
			if err != nil {
				return err
			}
			in, err := a.svc.Plans().TogglePlantInBed(cmd.Context(), args[0], bedID, args[2])
			if err != nil {
				return err
			}
			verb := "removed from"
			if in {
				verb = "added to"
			}
			fmt.Fprintf(a.out, "%s %s bed %d in %s\n", args[2], verb, bedID, args[0])
			return nil
		},
	}

	var harvested bool
	dateCmd := &cobra.Command{
		Use:   "date <plan> <plant-id> [YYYY-MM-DD]",
		Short: "Set or clear a plant's planting or harvest date",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := ""
			if len(args) == 3 {
				date = args[2]
			}
			sel := domain.SelectPlan(args[0])
			if harvested {
				return a.svc.Plans().SetHarvestedDate(cmd.Context(), sel, args[1], date)
			}
			return a.svc.Plans().SetPlantDate(cmd.Context(), sel, args[1], date)
		},
	}
	dateCmd.Flags().BoolVar(&harvested, "harvested", false, "set the harvest date instead")

	var sortBy string
	tableCmd := &cobra.Command{
		Use:   "table <plan>",
		Short: "Show the planner table of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := domain.ParseSortKey(sortBy)
			if err != nil {
				return &domain.ValidationError{Field: "sort", Reason: err.Error()}
			}
			if err := a.ensureCatalog(cmd.Context()); err != nil {
				a.logger.Warn("catalog unavailable, showing ids", "error", err)
			}
			rows, err := a.svc.PlannerRows(args[0], key)
			if err != nil {
				return err
			}
			tw := a.table()
			fmt.Fprintln(tw, "PLANT\tNAME\tBEDS\tPLANTED\tHARVESTED")
			for _, r := range rows {
				beds := make([]string, 0, len(r.BedIDs))
				for _, id := range r.BedIDs {
					if bed, ok := a.svc.Beds().Get(id); ok {
						beds = append(beds, bed.Name)
					} else {
						beds = append(beds, strconv.FormatInt(id, 10))
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.PlantID, r.Name, strings.Join(beds, ","), r.PlantDate, r.HarvestedDate)
			}
			return tw.Flush()
		},
	}
	tableCmd.Flags().StringVar(&sortBy, "sort", "name", "name, placed or a bed id")

	exportCmd := &cobra.Command{
		Use:   "export [name]",
		Short: "Export every plan, or one plan by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				info blob.Info
				err  error
			)
			if len(args) == 1 {
				info, err = a.svc.Plans().ExportPlan(cmd.Context(), args[0])
			} else {
				info, err = a.svc.Plans().Export(cmd.Context())
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
		Short: "Import plans, replacing plans with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importFile(args[0], func(r io.Reader) (int, error) {
				return a.svc.Plans().Import(cmd.Context(), r)
			})
		},
	}

	cmd.AddCommand(listCmd, createCmd, copyCmd, renameCmd, rmCmd, useCmd, toggleCmd, dateCmd, tableCmd, exportCmd, importCmd)
	return cmd
}
