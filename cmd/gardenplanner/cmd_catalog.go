package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gardenplanner/internal/core"
	"gardenplanner/pkg/domain"
)

type filterFlags struct {
	search    string
	source    string
	plan      string
	allPlans  bool
	favorites bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "match name or source")
	cmd.Flags().StringVar(&f.source, "source", "", "only plants from this source")
	cmd.Flags().StringVarP(&f.plan, "plan", "p", "", "use this plan instead of the active one")
	cmd.Flags().BoolVar(&f.allPlans, "all-plans", false, "ignore the active plan")
	cmd.Flags().BoolVarP(&f.favorites, "favorites", "f", false, "only favorites when no plan is selected")
}

func (f *filterFlags) filter(svc *core.Service) core.Filter {
	sel := svc.Plans().Active()
	switch {
	case f.allPlans:
		sel = domain.AllPlans()
	case f.plan != "":
		sel = domain.SelectPlan(f.plan)
	}
	return core.Filter{Search: f.search, Source: f.source, Selection: sel, OnlyFavorites: f.favorites}
}

func (a *app) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Browse the plant catalog"}

	var list filterFlags
	var group string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List plants matching the filter, optionally grouped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureCatalog(cmd.Context()); err != nil {
				return err
			}
			mode, err := domain.ParseGroupMode(group)
			if err != nil {
				return &domain.ValidationError{Field: "group", Reason: err.Error()}
			}
			groups, err := a.svc.Browse(list.filter(a.svc), mode)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(a.out, "no plants match")
				return nil
			}
			favs := a.svc.Favorites()
			for i, g := range groups {
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				a.title("%s (%d)", g.Title, len(g.Plants))
				tw := a.table()
				for _, p := range g.Plants {
					star := " "
					if favs.Contains(p.ID) {
						star = "*"
					}
					fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n", star, p.ID, p.Name, p.Source, p.Category)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	list.register(listCmd)
	listCmd.Flags().StringVarP(&group, "group", "g", "", "group by none, source or bed")

	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "List the distinct seed sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureCatalog(cmd.Context()); err != nil {
				return err
			}
			for _, s := range a.svc.Catalog().Sources() {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}

	var cal filterFlags
	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show seedling, sowing and harvest months of the filtered plants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureCatalog(cmd.Context()); err != nil {
				return err
			}
			tw := a.table()
			fmt.Fprintln(tw, "MONTH\tSEEDLINGS\tSOWING\tHARVEST")
			for _, row := range a.svc.Calendar(cal.filter(a.svc)) {
				if row.Empty() {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Month, names(row.Seedlings), names(row.Sowing), names(row.Harvest))
			}
			return tw.Flush()
		},
	}
	cal.register(calendarCmd)

	cmd.AddCommand(listCmd, sourcesCmd, calendarCmd)
	return cmd
}

func (a *app) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "favorites", Short: "Manage favorite plants"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.ensureCatalog(cmd.Context()); err != nil {
					a.logger.Warn("catalog unavailable, showing ids", "error", err)
				}
				catalog := a.svc.Catalog()
				for _, id := range a.svc.Favorites().IDs() {
					fmt.Fprintf(a.out, "%s\t%s\n", id, catalog.DisplayName(id))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle <plant-id>",
			Short: "Add or remove a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				on, err := a.svc.Favorites().Toggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if on {
					fmt.Fprintf(a.out, "%s added to favorites\n", args[0])
				} else {
					fmt.Fprintf(a.out, "%s removed from favorites\n", args[0])
				}
				return nil
			},
		},
	)
	return cmd
}

func names(plants []domain.Plant) string {
	out := make([]string, 0, len(plants))
	for _, p := range plants {
		out = append(out, p.Name)
	}
	return strings.Join(out, ", ")
}
