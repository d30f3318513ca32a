package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quizline/quizline/internal/export"
	"github.com/quizline/quizline/internal/handler"
	"github.com/quizline/quizline/internal/model"
	"github.com/quizline/quizline/internal/quiz"
	"github.com/quizline/quizline/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizline",
		Short: "SMS trivia quiz over Twilio-style webhooks",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizline --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz webhook server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "quizline.db", "SQLite database path")
	f.StringP("questions", "q", "", "Path to questions JSON file (default: built-in set)")
	f.String("export-url", "", "Webhook URL receiving completed answer sets (required)")
	f.StringSlice("admin-numbers", nil, "Phone numbers allowed to run admin commands (repeatable)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded quiz runs as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "quizline.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
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

	v.SetEnvPrefix("QUIZLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizline")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizline")
	v.AddConfigPath("/etc/quizline")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Load the question bank, fixed for the life of the process.
	bank, err := loadBank(v.GetString("questions"))
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	exportURL := v.GetString("export-url")
	if exportURL == "" {
		return fmt.Errorf("export URL is required: set --export-url flag or QUIZLINE_EXPORT_URL env var")
	}
	exporter, err := export.New(exportURL)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	var adminNumbers []string
	for _, n := range v.GetStringSlice("admin-numbers") {
		adminNumbers = append(adminNumbers, handler.NormalizeNumber(n))
	}

	cfg := model.QuizConfig{
		ExportURL:    exportURL,
		AdminNumbers: adminNumbers,
	}
	h := handler.New(db, quiz.NewEngine(bank), exporter, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"questions", bank.Len(),
		"export_url", exportURL,
		"admin_numbers", len(adminNumbers),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListCompletedRuns()
	if err != nil {
		return fmt.Errorf("list completed runs: %w", err)
	}

	// Runs are listed newest first; num_questions reflects the newest run's
	// answer count, which is the currently deployed bank. Older runs recorded
	// under a different bank keep their own answer lists.
	numQuestions := 0
	if len(runs) > 0 {
		numQuestions = len(runs[0].Answers)
	}

	out := model.RunExport{
		NumQuestions: numQuestions,
		Runs:         runs,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func loadBank(path string) (*quiz.Bank, error) {
	if path == "" {
		slog.Info("using built-in question set")
		return quiz.DefaultBank(), nil
	}
	bank, err := quiz.LoadBank(path)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded questions", "path", path, "count", bank.Len())
	return bank, nil
}
