package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/ritzau/netscene/pkg/batch"
	"github.com/ritzau/netscene/pkg/config"
	"github.com/ritzau/netscene/pkg/importer"
	"github.com/ritzau/netscene/pkg/logging"
	"github.com/ritzau/netscene/pkg/output"
	"github.com/ritzau/netscene/pkg/registry"
	"github.com/ritzau/netscene/pkg/scene"
	"github.com/ritzau/netscene/pkg/watcher"
	"github.com/ritzau/netscene/pkg/web"
	"github.com/spf13/pflag"
)

func main() {
	f := pflag.NewFlagSet("netscene", pflag.ExitOnError)
	f.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  netscene --nodes N.csv --edges E.csv [--frame F]\n  netscene --folder DIR [--interval 24] [--watch] [--serve]\n\n")
		f.PrintDefaults()
	}

	f.String("nodes", "", "Node table of a single snapshot")
	f.String("edges", "", "Edge table of a single snapshot")
	f.Int("frame", 0, "Frame of a single snapshot")
	f.String("folder", "", "Folder of snapshot tables to import in modification-time order")
	f.Int("interval", batch.DefaultInterval, "Frames between consecutive snapshots of a folder")
	f.String("node-marker", "vdata", "File name substring identifying node tables")
	f.String("edge-marker", "edata", "File name substring identifying edge tables")
	f.StringP("out", "o", "scene.json", "Path of the scene document to write")
	f.Bool("backfill", false, "Key late arrowheads at their edge's creation frame")
	f.Bool("watch", false, "Keep importing snapshot pairs as they appear in --folder")
	f.Bool("serve", false, "Serve the scene over HTTP")
	f.Int("port", 8080, "Port for the HTTP server (with --serve)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	f.Bool("json-logs", false, "Log as JSON")

	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logging.SetLevel(level)
	logging.SetJSONOutput(cfg.JSONLogs)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		f.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// app carries the state of one run across import modes
type app struct {
	cfg     *config.Config
	imp     *importer.Importer
	server  *web.Server
	reports []*importer.Report
	written string
}

// ImportFiles implements batch.Importer, reporting every import as it
// completes
func (a *app) ImportFiles(ctx context.Context, nodesPath, edgesPath string, frame int) (*importer.Report, error) {
	rep, err := a.imp.ImportFiles(ctx, nodesPath, edgesPath, frame)
	if rep != nil {
		a.reports = append(a.reports, rep)
		output.PrintImportReport(os.Stdout, rep)
	}
	if a.server != nil {
		if perr := a.server.PublishImport(rep, nodesPath, edgesPath, frame, err); perr != nil {
			logging.Warn("failed to publish import event", "error", perr)
		}
	}
	return rep, err
}

func run(ctx context.Context, cfg *config.Config) error {
	s := scene.New()
	registerTemplates(s, cfg.Templates)

	a := &app{
		cfg: cfg,
		imp: importer.New(s, importer.Options{
			NodeMarker: cfg.NodeMarker,
			Registry:   registry.Options{BackfillArrowheads: cfg.Backfill},
		}),
	}

	serveErr := make(chan error, 1)
	if cfg.Serve {
		a.server = web.NewServer(a.imp)
		go func() {
			serveErr <- a.server.Start(ctx, cfg.Port)
		}()
	}

	var runErr error
	if cfg.BatchMode() {
		runErr = a.runFolder(ctx)
	} else {
		_, runErr = a.ImportFiles(ctx, cfg.Nodes, cfg.Edges, cfg.Frame)
		if runErr == nil {
			runErr = a.write()
		}
	}

	output.PrintSummary(os.Stdout, a.reports, a.imp.Document(), a.written, runErr)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if cfg.Serve {
		if ctx.Err() == nil {
			logging.Info("serving scene, press Ctrl+C to stop", "port", cfg.Port)
		}
		return <-serveErr
	}
	return nil
}

// runFolder imports every pair of the folder, then keeps importing new
// pairs while watching
func (a *app) runFolder(ctx context.Context) error {
	seq, err := batch.NewSequencer(a, a.cfg.Interval)
	if err != nil {
		return err
	}

	if err := a.advance(ctx, seq); err != nil {
		if !a.cfg.Watch {
			return err
		}
		logging.Warn("initial import failed, watching for further changes", "nextFrame", seq.NextFrame(), "error", err)
	}
	if !a.cfg.Watch {
		return nil
	}

	fw, err := watcher.NewFolderWatcher(a.cfg.Folder, a.cfg.NodeMarker, a.cfg.EdgeMarker)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		logging.Debug("tables changed", "type", event.Type.String(), "count", len(event.Paths))
		// A failed pair is retried on the next change, e.g. once a table
		// that was still being written is complete
		if err := a.advance(ctx, seq); err != nil {
			logging.Warn("import failed, waiting for further changes", "nextFrame", seq.NextFrame(), "error", err)
		}
	}
	return ctx.Err()
}

// advance imports the folder's pairs not imported yet and rewrites the
// scene document when anything was imported
func (a *app) advance(ctx context.Context, seq *batch.Sequencer) error {
	pairs, err := batch.Discover(a.cfg.Folder, a.cfg.NodeMarker, a.cfg.EdgeMarker)
	if err != nil {
		return err
	}
	if len(pairs) == 0 && seq.Imported() == 0 {
		logging.Warn("no snapshot pairs found", "folder", a.cfg.Folder)
	}

	reports, runErr := seq.Advance(ctx, pairs)
	if len(reports) > 0 {
		if err := a.write(); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

// write exports the scene document to the configured path
func (a *app) write() error {
	doc := a.imp.Document()
	if err := doc.WriteFile(a.cfg.Out); err != nil {
		return err
	}
	a.written = a.cfg.Out
	logging.Info("scene written", "path", a.cfg.Out, "objects", len(doc.Objects), "frames", len(doc.Frames))

	if a.server != nil {
		if err := a.server.PublishScene(a.cfg.Out); err != nil {
			logging.Warn("failed to publish scene event", "error", err)
		}
	}
	return nil
}

// registerTemplates adds configured template objects to the scene so node
// tables can name them as shapes
func registerTemplates(s *scene.Scene, templates map[string]string) {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		shape, ok := scene.ParseShape(templates[name])
		if !ok {
			continue
		}
		s.AddTemplate(scene.NewMesh(name, shape))
		logging.Debug("registered template", "name", name, "shape", string(shape))
	}
}
