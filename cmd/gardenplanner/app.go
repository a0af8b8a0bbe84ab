package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gardenplanner/internal/blob"
	"gardenplanner/internal/config"
	"gardenplanner/internal/core"
	"gardenplanner/pkg/domain"
)

// app carries what every subcommand needs once the root has bootstrapped.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	verbose    bool
	assumeYes  bool

	cfg     config.Config
	zl      *zap.Logger
	logger  core.Logger
	svc     *core.Service
	heading lipgloss.Style
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:      bufio.NewReader(in),
		out:     out,
		errOut:  errOut,
		heading: lipgloss.NewRenderer(out).NewStyle().Bold(true),
	}
}

// rootCmd builds the command tree. The service is opened in the persistent
// pre-run; callers release it with shutdown.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gardenplanner",
		Short:         "Plan beds, year plans and garden layouts against a plant catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bootstrap(cmd.Context())
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&a.assumeYes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(
		a.catalogCmd(),
		a.favoritesCmd(),
		a.bedsCmd(),
		a.plansCmd(),
		a.gardensCmd(),
		a.designsCmd(),
		a.settingsCmd(),
		a.exportsCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) bootstrap(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	logger, zl, err := core.NewZapLoggerAt(level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.logger, a.zl = logger, zl

	kv, err := core.OpenKeyValueStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	exports, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = kv.Close()
		return err
	}

	var confirmer core.Confirmer = core.ConfirmFunc(a.prompt)
	if a.assumeYes {
		confirmer = core.AlwaysConfirm()
	}
	a.svc = core.NewService(kv,
		core.WithLogger(logger),
		core.WithConfirmer(confirmer),
		core.WithExportStore(exports),
	)
	if err := a.svc.Load(ctx); err != nil {
		// Unreadable keys fall back to empty state; keep going so the
		// settings commands can repair them.
		a.logger.Warn("state loaded with errors", "error", err)
	}
	zl.Debug("bootstrapped",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("blob", cfg.Blob.Driver),
	)
	return nil
}

func (a *app) shutdown() error {
	var errs []error
	if a.svc != nil {
		errs = append(errs, a.svc.Close())
		a.svc = nil
	}
	if a.zl != nil {
		// Sync on stderr reports EINVAL on some platforms.
		_ = a.zl.Sync()
		a.zl = nil
	}
	return errors.Join(errs...)
}

// prompt asks on errOut and reads a yes/no answer from in.
func (a *app) prompt(_ context.Context, question string) bool {
	fmt.Fprintf(a.errOut, "%s [y/N]: ", question)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "j", "ja":
		return true
	default:
		return false
	}
}

// ensureCatalog loads the configured catalog once per invocation. The URL wins
// over the file path.
func (a *app) ensureCatalog(ctx context.Context) error {
	if a.svc.Catalog().Len() > 0 {
		return nil
	}
	var src core.CatalogSource
	if a.cfg.Catalog.URL != "" {
		src = core.HTTPCatalogSource(a.cfg.Catalog.URL, &http.Client{Timeout: a.cfg.Catalog.Timeout})
	} else {
		src = core.FileCatalogSource(a.cfg.Catalog.Path)
	}
	return a.svc.LoadCatalog(ctx, src)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *app) title(format string, args ...any) {
	fmt.Fprintln(a.out, a.heading.Render(fmt.Sprintf(format, args...)))
}

func (a *app) printExport(info blob.Info) {
	fmt.Fprintf(a.out, "exported %s (%d bytes)\n", info.Key, info.Size)
	if info.URL != "" {
		fmt.Fprintln(a.out, info.URL)
	}
}

// openInput opens an import file; "-" reads stdin. Stdin also carries the
// confirmation answer, so "-" needs --yes.
func (a *app) openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		if !a.assumeYes {
			return nil, &domain.ValidationError{Field: "file", Reason: "reading from stdin needs --yes"}
		}
		return io.NopCloser(a.in), nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (a *app) importFile(path string, fn func(io.Reader) (int, error)) error {
	rc, err := a.openInput(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	n, err := fn(rc)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %d records\n", n)
	return nil
}
