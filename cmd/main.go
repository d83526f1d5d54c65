package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sub-inspector/internal/config"
	"sub-inspector/internal/dedup"
	"sub-inspector/internal/fetcher"
	"sub-inspector/internal/geoip"
	"sub-inspector/internal/logger"
	"sub-inspector/internal/report"
	"sub-inspector/internal/sink"
	"sub-inspector/internal/source"
	"sub-inspector/internal/subscription"
	"sub-inspector/internal/telegram"
)

type app struct {
	cfg      *config.Config
	loc      *time.Location
	fetch    *fetcher.Fetcher
	analyzer *subscription.Analyzer
	sinks    sink.Multi
	notifier *telegram.Notifier
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel)

	if err := run(cfg, os.Args[1:]); err != nil {
		slog.Error("run_failed", "error", err)
		os.Exit(1)
	}
}

// run wires everything and analyzes refs. Resources opened here are
// closed by its defers before main exits.
func run(cfg *config.Config, refs []string) error {
	// 0. Setup
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid DISPLAY_TZ %q: %w", cfg.DisplayTZ, err)
	}

	if len(refs) == 0 {
		if refs, err = source.LoadFromFile(cfg.InputPath); err != nil {
			return fmt.Errorf("load %s: %w", cfg.InputPath, err)
		}
	}
	if len(refs) == 0 {
		return errors.New("no subscriptions: pass URLs or files as arguments, or fill INPUT_PATH")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wiring
	a := &app{
		cfg:   cfg,
		loc:   loc,
		fetch: fetcher.New(cfg.FetchTimeout, cfg.UserAgent, cfg.FetchRetries, cfg.FetchBackoff),
	}

	jsonl, err := sink.NewJSONL(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.OutputPath, err)
	}
	a.sinks = sink.Multi{jsonl}
	defer func() {
		if err := a.sinks.Close(); err != nil {
			slog.Error("output_close_failed", "error", err)
		}
	}()
	text, err := sink.NewText(cfg.TxtOutputPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.TxtOutputPath, err)
	}
	a.sinks = append(a.sinks, text)

	opts := []subscription.Option{subscription.WithWorkers(cfg.DecodeWorkers)}
	if cfg.GeoIPPath != "" {
		db, err := geoip.Open(cfg.GeoIPPath)
		if err != nil {
			slog.Warn("geoip_unavailable", "path", cfg.GeoIPPath, "error", err)
		} else {
			defer db.Close()
			opts = append(opts, subscription.WithLocator(db))
		}
	}
	a.analyzer = subscription.NewAnalyzer(opts...)

	if cfg.TelegramEnabled() {
		a.notifier = telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	}

	slog.Info("run_started", "subscriptions", len(refs), "workers", cfg.Workers)

	// 2. Fan out
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		okCount   int
		semaphore = make(chan struct{}, max(cfg.Workers, 1))
		seen      = dedup.New()
		start     = time.Now()
	)

	for _, ref := range refs {
		if seen.Seen(ref) {
			slog.Info("duplicate_skipped", "source", ref)
			continue
		}

		wg.Add(1)
		go func(ref string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if a.process(ctx, ref) {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}(ref)
	}

	wg.Wait()
	slog.Info("run_complete", "duration", time.Since(start), "ok", okCount, "total", len(refs))
	return nil
}

// process handles one subscription end to end and reports whether it
// produced any nodes.
func (a *app) process(ctx context.Context, ref string) bool {
	log := slog.With("source", ref)

	// --- STAGE 1: FETCH ---
	var (
		resp *fetcher.Response
		err  error
	)
	if source.IsURL(ref) {
		resp, err = a.fetch.Fetch(ctx, ref)
	} else {
		resp, err = fetcher.ReadFile(ref)
	}
	if err != nil {
		log.Warn("fetch_failed", "error", err)
		return false
	}
	log.Debug("subscription_fetched", "bytes", len(resp.Body))

	// --- STAGE 2: ANALYZE ---
	res := a.analyzer.Analyze(subscription.Input{
		URL:         ref,
		Body:        resp.Body,
		Header:      resp.Header,
		ContentType: resp.ContentType,
	})

	// --- STAGE 3: OUTPUT ---
	text := report.Render(res.Report, res.Warnings, report.RenderOptions{
		Location: a.loc,
		URL:      ref,
	})
	fmt.Print(text + "\n\n")

	if err := a.sinks.Write(sink.Record{
		Source:    ref,
		CheckedAt: time.Now().UTC(),
		Report:    res.Report,
		Warnings:  res.Warnings,
		Text:      text,
	}); err != nil {
		log.Error("output_write_failed", "error", err)
	}
	if a.notifier != nil {
		if err := a.notifier.SendMessage(ctx, text); err != nil {
			log.Warn("telegram_send_failed", "error", err)
		}
	}

	log.Info("subscription_done",
		"nodes", res.Report.NodeCount(),
		"warnings", len(res.Warnings),
		"format", res.Report.Format,
	)
	return res.Report.NodeCount() > 0
}
