package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/realexam/internal/export"
	"github.com/pavelanni/realexam/internal/extract"
	appI18n "github.com/pavelanni/realexam/internal/i18n"
	"github.com/pavelanni/realexam/internal/importer"
	"github.com/pavelanni/realexam/internal/knowledge"
	"github.com/pavelanni/realexam/internal/llm"
	"github.com/pavelanni/realexam/internal/model"
	"github.com/pavelanni/realexam/internal/parse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "realexam",
		Short:         "Turn past exam PDFs into a reviewable question bank",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		importCmd(),
		importAllCmd(),
		aggregateCmd(),
		validateCmd(),
		bankCmd(),
		serveCmd(),
	)
	return root
}

func addCommonFlags(f *pflag.FlagSet) {
	f.String("data-dir", "data", "Directory for candidate and question-bank JSON")
	f.String("review-dir", "review", "Directory for review CSV files")
	f.String("pages-dir", "tmp/exam_pages", "Directory for raw page texts")
	f.StringP("lang", "l", "zh", "Language for notes and summaries (zh, en)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addPipelineFlags(f *pflag.FlagSet) {
	f.String("ocr", "off", "OCR engine for pages without a usable text layer (off, tesseract, llm)")
	f.Int("min-chars", extract.DefaultMinChars, "Pages with fewer characters are sent to OCR")
	f.String("tesseract-bin", "tesseract", "Path to the tesseract binary")
	f.String("tesseract-lang", extract.DefaultTesseractLang, "Tesseract language models")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llava", "Vision model name")
	f.String("segmenter", "paren", "Question number style (paren, dotted)")
	f.Bool("strict", false, "Hold back blocks that match no question-type marker")
	f.String("knowledge-file", "", "YAML keyword table (default: built-in)")
	f.Int("min-section-pages", importer.DefaultMinSectionPages, "Fewest pages a collection year needs")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("REALEXAM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("realexam")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/realexam")
	v.AddConfigPath("/etc/realexam")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// initLang loads the catalogs and rejects a language without one.
func initLang(lang string) error {
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	if !appI18n.Supported(lang) {
		return fmt.Errorf("unsupported language %q (available: %v)", lang, appI18n.Languages())
	}
	return nil
}

// localized initializes the catalogs and returns a context carrying a
// localizer for the configured language.
func localized(ctx context.Context, v *viper.Viper) (context.Context, error) {
	lang := v.GetString("lang")
	if err := initLang(lang); err != nil {
		return nil, err
	}
	return appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang)), nil
}

func newExporter(v *viper.Viper) *export.Exporter {
	return export.New(v.GetString("data-dir"), v.GetString("review-dir"), v.GetString("pages-dir"))
}

func newRecognizer(ctx context.Context, v *viper.Viper) (extract.Recognizer, error) {
	switch engine := strings.ToLower(strings.TrimSpace(v.GetString("ocr"))); engine {
	case "", "off", "none":
		return nil, nil
	case "tesseract":
		return extract.Tesseract{Binary: v.GetString("tesseract-bin"), Lang: v.GetString("tesseract-lang")}, nil
	case "llm":
		client := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q (want off, tesseract or llm)", engine)
	}
}

// newImporter assembles the pipeline from configuration. ctx must carry a localizer.
func newImporter(ctx context.Context, v *viper.Viper) (*importer.Importer, error) {
	rec, err := newRecognizer(ctx, v)
	if err != nil {
		return nil, err
	}
	ex := extract.New(&extract.PDFCPURasterizer{}, rec)
	ex.MinChars = v.GetInt("min-chars")

	seg, err := parse.SegmenterByName(v.GetString("segmenter"))
	if err != nil {
		return nil, err
	}
	p := parse.New()
	p.Segmenter = seg
	p.Strict = v.GetBool("strict")
	p.Notes = parse.Notes{
		Auto:      appI18n.T(ctx, "ParsingNoteAuto"),
		Defaulted: appI18n.T(ctx, "ParsingNoteDefaulted"),
	}

	table, err := knowledge.LoadTable(v.GetString("knowledge-file"))
	if err != nil {
		return nil, err
	}

	im := importer.New(ex, p, knowledge.NewMapper(table), newExporter(v))
	im.MinSectionPages = v.GetInt("min-section-pages")
	return im, nil
}

// sources reads the filename table from configuration, falling back to the
// built-in one.
func sources(v *viper.Viper) ([]model.Source, error) {
	var srcs []model.Source
	if err := v.UnmarshalKey("sources", &srcs); err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	if len(srcs) == 0 {
		return model.DefaultSources, nil
	}
	for i := range srcs {
		if srcs[i].Kind == "" {
			srcs[i].Kind = model.KindYear
		}
	}
	return srcs, nil
}
