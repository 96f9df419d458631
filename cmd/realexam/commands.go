package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/realexam/internal/export"
	"github.com/pavelanni/realexam/internal/handler"
	appI18n "github.com/pavelanni/realexam/internal/i18n"
	"github.com/pavelanni/realexam/internal/importer"
	"github.com/pavelanni/realexam/internal/model"
	"github.com/pavelanni/realexam/internal/store"
	"github.com/pavelanni/realexam/internal/validate"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <pdf>",
		Short: "Import one exam PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.Int("year", 0, "Exam year (required for single-year documents)")
	f.String("kind", string(model.KindYear), "Document kind (year, collection, answers)")
	addCommonFlags(f)
	addPipelineFlags(f)
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, err := localized(cmd.Context(), v)
	if err != nil {
		return err
	}
	im, err := newImporter(ctx, v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	path := args[0]
	switch kind := model.SourceKind(v.GetString("kind")); kind {
	case model.KindYear:
		year := v.GetInt("year")
		if year <= 0 {
			return fmt.Errorf("--year is required for %s documents", kind)
		}
		_, _ = fmt.Fprintln(out, appI18n.Td(ctx, "ImportStart", map[string]any{"File": filepath.Base(path), "Year": year}))
		rep, err := im.ImportYear(ctx, path, year)
		printReport(ctx, out, rep)
		return err
	case model.KindCollection, model.KindAnswers:
		reps, err := im.ImportCollection(ctx, path, kind)
		for _, rep := range reps {
			printReport(ctx, out, rep)
		}
		return err
	default:
		return fmt.Errorf("%w: %q", importer.ErrUnknownKind, kind)
	}
}

func importAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-all",
		Short: "Import every known exam PDF in a directory",
		Args:  cobra.NoArgs,
		RunE:  runImportAll,
	}
	f := cmd.Flags()
	f.String("pdf-dir", "考研真题", "Directory holding the exam PDFs")
	f.Bool("aggregate", true, "Rebuild the complete question bank afterwards")
	addCommonFlags(f)
	addPipelineFlags(f)
	return cmd
}

func runImportAll(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, err := localized(cmd.Context(), v)
	if err != nil {
		return err
	}
	srcs, err := sources(v)
	if err != nil {
		return err
	}
	im, err := newImporter(ctx, v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reps, err := im.ImportAll(ctx, v.GetString("pdf-dir"), srcs)
	if err != nil {
		return err
	}
	ok := 0
	for _, rep := range reps {
		printReport(ctx, out, rep)
		if rep.OK() {
			ok++
		}
	}
	_, _ = fmt.Fprintln(out, appI18n.Td(ctx, "ImportAllSummary", map[string]any{"OK": ok, "Total": len(reps)}))

	if v.GetBool("aggregate") && ok > 0 {
		path, n, err := im.Exporter.Aggregate(time.Now())
		if err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
		_, _ = fmt.Fprintln(out, appI18n.Td(ctx, "AggregateDone", map[string]any{"Count": n, "Path": path}))
	}
	return nil
}

func printReport(ctx context.Context, w io.Writer, rep *importer.Report) {
	if rep == nil {
		return
	}
	if !rep.OK() {
		_, _ = fmt.Fprintln(w, appI18n.Td(ctx, "ImportFailed", map[string]any{
			"File": filepath.Base(rep.File), "Year": rep.Year, "Error": rep.Err,
		}))
		return
	}
	_, _ = fmt.Fprintln(w, appI18n.Td(ctx, "ImportDone", map[string]any{
		"Year":       rep.Year,
		"Candidates": rep.Candidates(),
		"Pages":      rep.Pages,
		"Choice":     rep.ByType[model.TypeChoice],
		"Blank":      rep.ByType[model.TypeBlank],
		"Solve":      rep.ByType[model.TypeSolve],
	}))
	ocr, failed := rep.PagesByMethod[model.MethodOCR], rep.PagesByMethod[model.MethodOCRFailed]
	if ocr+failed > 0 {
		_, _ = fmt.Fprintln(w, "  "+appI18n.Td(ctx, "PagesOCR", map[string]any{"OCR": ocr, "Failed": failed}))
	}
	if n := len(rep.BlockErrors); n > 0 {
		_, _ = fmt.Fprintln(w, "  "+appI18n.Tp(ctx, "BlockErrors", n))
	}
	if rep.Unclassified > 0 {
		_, _ = fmt.Fprintln(w, "  "+appI18n.Tp(ctx, "UnclassifiedBlocks", rep.Unclassified))
	}
}

func aggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Merge per-year question banks into the app bank",
		Args:  cobra.NoArgs,
		RunE:  runAggregate,
	}
	f := cmd.Flags()
	f.Int("year", 0, "Wrap only this year's bank")
	addCommonFlags(f)
	return cmd
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, err := localized(cmd.Context(), v)
	if err != nil {
		return err
	}
	exp := newExporter(v)

	var (
		path string
		n    int
	)
	if year := v.GetInt("year"); year > 0 {
		path, n, err = exp.AggregateYear(year, time.Now())
	} else {
		path, n, err = exp.Aggregate(time.Now())
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(ctx, "AggregateDone", map[string]any{"Count": n, "Path": path}))
	return nil
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check candidate files for completeness",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	f := cmd.Flags()
	f.IntSlice("year", nil, "Years to validate (default: every candidate file)")
	addCommonFlags(f)
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, err := localized(cmd.Context(), v)
	if err != nil {
		return err
	}
	exp := newExporter(v)

	files, err := validateTargets(v, exp)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, f := range files {
		res := validate.ValidateFile(f.Path, f.Year)
		printValidation(ctx, out, res)
		if !res.Valid() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d years failed validation", failed, len(files))
	}
	return nil
}

// validateTargets returns the candidate files for the configured years, or
// every candidate file in the data directory when none are configured.
func validateTargets(v *viper.Viper, exp *export.Exporter) ([]export.YearFile, error) {
	years := v.GetIntSlice("year")
	if len(years) == 0 {
		return exp.CandidateFiles()
	}
	files := make([]export.YearFile, 0, len(years))
	for _, y := range years {
		files = append(files, export.YearFile{Year: y, Path: exp.CandidatePath(y)})
	}
	return files, nil
}

func printValidation(ctx context.Context, w io.Writer, res *validate.Result) {
	msg := "ValidationPassed"
	if !res.Valid() {
		msg = "ValidationFailed"
	}
	_, _ = fmt.Fprintln(w, appI18n.Td(ctx, msg, map[string]any{"Year": res.Year}))
	_, _ = fmt.Fprintln(w, "  "+appI18n.Td(ctx, "ValidationCounts", map[string]any{
		"Choice": res.Counts[model.TypeChoice],
		"Blank":  res.Counts[model.TypeBlank],
		"Solve":  res.Counts[model.TypeSolve],
		"Total":  res.Total,
	}))
	printList(w, appI18n.T(ctx, "ValidationErrors"), res.Errors)
	printList(w, appI18n.T(ctx, "ValidationWarnings"), res.Warnings)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "  "+title)
	for _, it := range items {
		_, _ = fmt.Fprintln(w, "    - "+it)
	}
}

func bankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Manage the question-bank database",
	}
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Load per-year question banks into the database",
		Args:  cobra.NoArgs,
		RunE:  runBankSync,
	}
	f := sync.Flags()
	f.String("db", "realexam.db", "SQLite database path")
	addCommonFlags(f)
	cmd.AddCommand(sync)
	return cmd
}

func runBankSync(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, err := localized(cmd.Context(), v)
	if err != nil {
		return err
	}
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	loaded, skipped, err := syncBanks(db, newExporter(v))
	if err != nil {
		return err
	}
	total, err := db.QuestionCount()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(ctx, "SyncDone", map[string]any{
		"Loaded": loaded, "Skipped": skipped, "Total": total,
	}))
	return nil
}

// syncBanks loads every changed per-year question bank into db.
func syncBanks(db *store.Store, exp *export.Exporter) (loaded, skipped int, err error) {
	files, err := exp.YearBanks()
	if err != nil {
		return 0, 0, err
	}
	for _, f := range files {
		changed, n, err := db.SyncFile(f.Path, f.Year)
		if err != nil {
			return loaded, skipped, fmt.Errorf("sync %s: %w", filepath.Base(f.Path), err)
		}
		if !changed {
			skipped++
			continue
		}
		slog.Info("synced question bank", "year", f.Year, "questions", n)
		loaded++
	}
	if err := db.SetLastSync(time.Now()); err != nil {
		return loaded, skipped, err
	}
	return loaded, skipped, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question bank over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.String("addr", ":8080", "Listen address")
	f.String("db", "realexam.db", "SQLite database path")
	f.Bool("sync", true, "Sync per-year question banks before serving")
	addCommonFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	lang := v.GetString("lang")
	if err := initLang(lang); err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if v.GetBool("sync") {
		loaded, skipped, err := syncBanks(db, newExporter(v))
		if err != nil {
			slog.Warn("bank sync failed", "error", err)
		} else {
			slog.Info("bank sync complete", "loaded", loaded, "skipped", skipped)
		}
	}

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: handler.New(db).Router(lang)}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
