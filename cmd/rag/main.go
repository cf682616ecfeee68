package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ragnotes/internal/cli"
	"ragnotes/internal/config"
	"ragnotes/internal/extract"
	"ragnotes/internal/httpapi"
	"ragnotes/internal/logging"
	"ragnotes/internal/session"
	"ragnotes/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, mode, addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragnotes/config.yaml if not provided)")
	flag.StringVar(&mode, "mode", "tui", "Front-end: tui, plain or serve")
	flag.StringVar(&addr, "addr", "", "Listen address for serve mode (overrides server.addr)")
	flag.Parse()
	docPath := flag.Arg(0)

	if mode == "tui" && docPath == "" {
		fmt.Println("Usage: rag [--config=config.yaml] [--mode=tui|plain|serve] [--addr=:8080] document")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	// The TUI owns the terminal, so its logs go to the configured file or nowhere.
	fallback := io.Writer(os.Stderr)
	if mode == "tui" {
		fallback = io.Discard
	}
	out, closeLog, err := logging.Open(cfg.Log, fallback)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger := logging.New(cfg.Log, out)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, mode, docPath, cfg, logger); err != nil {
		logger.Error().Err(err).Str("mode", mode).Msg("exiting")
		fmt.Fprintln(os.Stderr, err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, mode, docPath string, cfg *config.AppConfig, logger zerolog.Logger) error {
	sess, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info().Str("session", sess.ID()).Str("mode", mode).Msg("session started")

	switch mode {
	case "tui":
		return runTUI(ctx, sess, docPath, cfg.History.ExportPath)
	case "plain":
		chat := cli.New(sess, extract.Load, cfg.History.ExportPath, os.Stdout, os.Stderr)
		if docPath != "" {
			if err := chat.LoadFile(ctx, docPath); err != nil {
				return err
			}
		}
		return chat.Run(ctx, os.Stdin)
	case "serve":
		if docPath != "" {
			if _, err := loadDocument(ctx, sess, docPath); err != nil {
				return err
			}
		}
		return serve(ctx, cfg.Server.Addr, httpapi.NewRouter(sess, extract.Reader, logger), logger)
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

func loadDocument(ctx context.Context, sess *session.Session, path string) (session.Loaded, error) {
	doc, err := extract.Load(path)
	if err != nil {
		return session.Loaded{}, fmt.Errorf("read %s: %w", path, err)
	}
	return sess.LoadDocument(ctx, doc)
}

func runTUI(ctx context.Context, sess *session.Session, docPath, exportPath string) error {
	fmt.Printf("Indexing %s...\n", docPath)
	loaded, err := loadDocument(ctx, sess, docPath)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	m := tui.New(sess, filepath.Base(docPath), loaded.Summary, exportPath)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}
