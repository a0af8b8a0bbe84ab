package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"gardenplanner/internal/blob"
	"gardenplanner/internal/config"
	"gardenplanner/internal/core"
	"gardenplanner/pkg/domain"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Inspect and edit the raw stored state"}

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.svc.RawKeys(cmd.Context())
			if err != nil {
				return err
			}
			tw := a.table()
			fmt.Fprintln(tw, "KEY\tKNOWN\tSTORED\tBYTES")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%t\t%t\t%d\n", e.Key, e.Known, e.Stored, e.Size)
			}
			return tw.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Print the raw JSON of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, ok, err := a.svc.Raw(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNotFound{Entity: "key", ID: args[0]}
			}
			fmt.Fprintln(a.out, text)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <file|->",
		Short: "Overwrite a known key with JSON and reload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.openInput(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()
			text, err := io.ReadAll(rc)
			if err != nil {
				return err
			}
			if err := a.svc.OverwriteRaw(cmd.Context(), args[0], string(text)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "saved %s\n", args[0])
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every stored key as one bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.svc.ExportBundle(cmd.Context())
			if err != nil {
				return err
			}
			a.printExport(info)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore a bundle; every key in it is replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importFile(args[0], func(r io.Reader) (int, error) {
				return a.svc.ImportBundle(cmd.Context(), r)
			})
		},
	}

	cmd.AddCommand(keysCmd, showCmd, setCmd, exportCmd, importCmd)
	return cmd
}

func (a *app) exportsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "exports", Short: "Browse written export files"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [kind]",
			Short: "List exports, optionally of one kind",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind := ""
				if len(args) == 1 {
					kind = args[0]
				}
				infos, err := blob.ListExports(cmd.Context(), a.svc.Exports(), kind)
				if err != nil {
					return err
				}
				tw := a.table()
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "cat <key>",
			Short: "Print an export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := blob.ReadAll(cmd.Context(), a.svc.Exports(), args[0])
				if err != nil {
					return err
				}
				_, err = a.out.Write(data)
				return err
			},
		},
	)
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow changes other processes make to the sqlite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Storage.Driver != config.StorageSQLite {
				return &domain.ValidationError{Field: "storage.driver", Reason: "watch needs the sqlite driver"}
			}
			ctx := cmd.Context()
			w, err := core.NewStoreWatcher(a.cfg.Storage.SQLitePath, a.svc.Feed(), a.cfg.Watch.Debounce, a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			events, cancel := a.svc.Feed().Subscribe(0)
			defer cancel()
			followDone := make(chan error, 1)
			go func() { followDone <- a.svc.FollowExternal(ctx) }()

			fmt.Fprintf(a.errOut, "watching %s\n", filepath.Base(a.cfg.Storage.SQLitePath))
			for {
				select {
				case ev := <-events:
					if ev.External {
						fmt.Fprintf(a.out, "%s changed\n", ev.Key)
					}
				case err := <-followDone:
					if errors.Is(err, ctx.Err()) {
						return nil
					}
					return err
				}
			}
		},
	}
}
