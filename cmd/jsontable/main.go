// Command jsontable validates CSV files against a JSON table schema and
// optionally loads valid files into a relational table.
//
//	jsontable -config run.yaml [-schema s.json] [-stop] [-store] [-v] [files...]
//
// One JSON report per file is written to stdout. The exit status is 0 when
// every file is valid, 1 when at least one file has data errors and 2 on a
// configuration or runtime failure.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jsontable/internal/analyse"
	"jsontable/internal/config"
	"jsontable/internal/datasource/file"
	"jsontable/internal/logging"
	"jsontable/internal/metrics"
	"jsontable/internal/metrics/datadog"
	"jsontable/internal/metrics/prompush"
	"jsontable/internal/parser/csv"
	"jsontable/internal/schema"
	"jsontable/internal/storage"
	"jsontable/internal/store"
	"jsontable/internal/validate/foreignkey"

	// register all backends with the storage factory.
	_ "jsontable/internal/storage/all"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitFatal   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsontable", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "run config (yaml or json); empty reads the environment only")
	schemaPath := fs.String("schema", "", "table schema JSON file (overrides config)")
	stopIfInvalid := fs.Bool("stop", false, "stop each file at its first data error")
	storeValid := fs.Bool("store", false, "load valid files into storage.table")
	checkConfig := fs.Bool("validate-config", false, "validate the configuration and exit")
	verbose := fs.Bool("v", false, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitValid
		}
		return exitFatal
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFatal
	}
	if *schemaPath != "" {
		cfg.Schema = *schemaPath
	}
	if *stopIfInvalid {
		cfg.StopIfInvalid = true
	}
	if *storeValid {
		cfg.Storage.Store = true
	}
	if fs.NArg() > 0 {
		cfg.Files = fs.Args()
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	issues := config.ValidateRun(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return exitFatal
	}
	if *checkConfig {
		return exitValid
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return exitFatal
	}
	defer logger.Sync() //nolint:errcheck

	r := &runner{cfg: cfg, runID: uuid.NewString()}
	r.log = logger.With(zap.String("run_id", r.runID), zap.String("job", cfg.Job))

	flush := setupMetrics(cfg.Metrics, cfg.Job, r.log)
	defer flush()

	start := time.Now()
	reports, err := r.execute(ctx)

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	invalid := false
	for _, rep := range reports {
		if rep.File == "" {
			continue
		}
		if !rep.Valid {
			invalid = true
		}
		if encErr := enc.Encode(rep); encErr != nil {
			r.log.Error("write report", zap.String("file", rep.File), zap.Error(encErr))
		}
	}

	if err != nil {
		r.log.Error("run failed", zap.Error(err))
		return exitFatal
	}
	r.log.Info("run completed",
		zap.Int("files", len(reports)),
		zap.Bool("all_valid", !invalid),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
	)
	if invalid {
		return exitInvalid
	}
	return exitValid
}

// setupMetrics installs the configured backend and returns its flush func.
func setupMetrics(m config.Metrics, job string, log *zap.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "prompush":
		b, err = prompush.NewBackend(job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  "jsontable.",
			GlobalTags: []string{"job:" + job},
		})
	default:
		log.Debug("metrics disabled", zap.String("backend", m.Backend))
		return func() {}
	}
	if err != nil {
		log.Warn("metrics backend unavailable; using nop", zap.String("backend", m.Backend), zap.Error(err))
		return func() {}
	}
	metrics.SetBackend(b)
	log.Debug("metrics enabled", zap.String("backend", m.Backend))
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush", zap.Error(err))
		}
	}
}

// runner holds what every file check shares.
type runner struct {
	cfg   *config.Run
	runID string
	log   *zap.Logger

	schema *schema.Schema
	repo   storage.Repository
	fks    *foreignkey.Registry
	opt    csv.Options

	// storeMu serialises loads into the shared table.
	storeMu sync.Mutex
}

// execute validates every configured file, at most cfg.Concurrency at a
// time. Reports of files that were not processed have an empty File.
func (r *runner) execute(ctx context.Context) ([]analyse.Report, error) {
	files := append([]string(nil), r.cfg.Files...)
	if r.cfg.FileList != "" {
		listed, err := file.ReadList(r.cfg.FileList)
		if err != nil {
			return nil, err
		}
		files = append(files, listed...)
	}

	s, err := schema.LoadFile(r.cfg.Schema)
	if err != nil {
		return nil, err
	}
	r.schema = s

	comma, err := r.cfg.CSV.CommaRune()
	if err != nil {
		return nil, err
	}
	r.opt = csv.Options{Comma: comma, Encoding: r.cfg.CSV.Encoding, TrimSpace: r.cfg.CSV.TrimSpace}

	r.fks = foreignkey.NewRegistry()
	if sc := r.cfg.Storage; sc.Enabled() {
		repo, err := storage.New(ctx, storage.Config{Kind: sc.Kind, DSN: sc.DSN, MaxConns: sc.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("open storage %s: %w", logging.SanitizeDSN(sc.DSN), err)
		}
		defer repo.Close()
		r.repo = repo
		r.fks.Register(schema.DefaultDataPackage, foreignkey.NewPostgres(repo))
		r.log.Info("storage opened", zap.String("kind", sc.Kind), zap.String("dsn", logging.SanitizeDSN(sc.DSN)))

		if sc.CreateTable {
			spec := storage.TableSpec{Table: sc.Table, PrimaryKey: sc.PrimaryKey, Schema: s}
			if err := storage.EnsureTable(ctx, sc.Kind, repo, spec); err != nil {
				return nil, fmt.Errorf("create table %s: %w", sc.Table, err)
			}
		}
	}

	limit := r.cfg.Concurrency
	if limit <= 0 {
		limit = 1
	}
	reports := make([]analyse.Report, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			rep, err := r.check(gctx, path)
			reports[i] = rep
			return err
		})
	}
	err = g.Wait()
	return reports, err
}

// check validates one file and stores it when it is valid and storing is
// enabled.
func (r *runner) check(ctx context.Context, path string) (analyse.Report, error) {
	log := r.log.With(zap.String("file", path))

	src, err := csv.OpenFile(ctx, path, r.opt)
	if err != nil {
		return analyse.Report{}, err
	}
	defer src.Close()

	a, err := analyse.New(r.schema, src,
		analyse.WithLogger(r.log),
		analyse.WithForeignKeys(r.fks),
		analyse.WithJob(r.cfg.Job),
		analyse.WithRunID(r.runID),
	)
	if err != nil {
		return analyse.Report{}, err
	}
	valid, err := a.Validate(ctx, r.cfg.StopIfInvalid)
	rep := a.Report()
	if err != nil {
		return rep, fmt.Errorf("validate %s: %w", path, err)
	}
	if !valid || !r.cfg.Storage.Store {
		return rep, nil
	}

	r.storeMu.Lock()
	defer r.storeMu.Unlock()
	st := store.New(r.repo, r.schema, src, store.WithLogger(log), store.WithJob(r.cfg.Job))
	keys, err := st.Store(ctx, r.cfg.Storage.Table, r.cfg.Storage.PrimaryKey)
	if err != nil {
		return rep, fmt.Errorf("store %s: %w", path, err)
	}
	if keys != nil {
		rep.InsertedRecords = keys
	}
	return rep, nil
}
