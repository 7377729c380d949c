package cli

import (
	"context"
	"fmt"

	"eve-arbscan/internal/blob"
	"eve-arbscan/internal/config"
	"eve-arbscan/internal/db"
	"eve-arbscan/internal/engine"
	"eve-arbscan/internal/esi"
	"eve-arbscan/internal/feed"
	"eve-arbscan/internal/logger"
	"eve-arbscan/internal/notify"
	"eve-arbscan/internal/report"
)

// app holds the components wired from one Config.
type app struct {
	cfg      *config.Config
	esi      *esi.Client
	scanner  *engine.Scanner
	loop     *engine.Loop
	store    *db.DB
	feed     *feed.Publisher
	archiver *blob.Archiver
	notifier *notify.Notifier
}

func newESIClient(c *config.Config) *esi.Client {
	return esi.NewClient(esi.Options{
		BaseURL:           c.ESI.BaseURL,
		UserAgent:         c.ESI.UserAgent,
		OrdersTimeout:     c.ESI.OrdersTimeout,
		HistoryTimeout:    c.ESI.HistoryTimeout,
		NamesTimeout:      c.ESI.NamesTimeout,
		RequestsPerSecond: c.ESI.RequestsPerSecond,
		Burst:             c.ESI.Burst,
	})
}

// tuningFrom maps the config heuristics onto the engine.
func tuningFrom(c config.TuningConfig) (engine.Tuning, error) {
	ref, err := engine.FindHub(c.ReferenceHub)
	if err != nil {
		return engine.Tuning{}, fmt.Errorf("reference hub: %w", err)
	}
	return engine.Tuning{
		MinROI:            c.MinROI,
		MaxROI:            c.MaxROI,
		TopCandidates:     c.TopCandidates,
		StalePriceFactor:  c.StalePriceFactor,
		EmptyMarketMarkup: c.EmptyMarketMarkup,
		ReferenceHub:      ref,
		ReferenceDepth:    c.ReferenceDepth,
		HistoryWindow:     c.HistoryWindow,
		ProgressEvery:     c.ProgressEvery,
	}, nil
}

// newApp wires the scanner, the loop and every configured sink.
func newApp(ctx context.Context, c *config.Config, console engine.Observer) (*app, error) {
	tuning, err := tuningFrom(c.Tuning)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: c, esi: newESIClient(c)}
	a.scanner = engine.NewScanner(a.esi, c.ESI.PageWorkers)
	a.scanner.Tuning = tuning

	var sinks []engine.CycleSink
	observers := engine.MultiObserver{console}

	if c.Storage.Path != "" {
		a.store, err = db.Open(c.Storage.Path, c.Storage.HistoryTTL)
		if err != nil {
			return nil, err
		}
		a.store.CleanupOldHistory()
		a.scanner.History = a.store
		a.scanner.Names = a.store
		sinks = append(sinks, a.store)
	}

	var senders []notify.Sender
	if c.Notify.TelegramToken != "" {
		senders = append(senders, notify.NewTelegramSender(c.Notify.TelegramToken, c.Notify.TelegramChatID))
	}
	if c.Notify.DiscordWebhook != "" {
		senders = append(senders, notify.NewDiscordSender(c.Notify.DiscordWebhook))
	}
	a.notifier = notify.NewNotifier(senders, c.Notify.TopN)
	if a.notifier.Enabled() {
		sinks = append(sinks, a.notifier)
	}

	if c.Redis.Addr != "" {
		a.feed = feed.NewPublisher(c.Redis)
		observers = append(observers, a.feed)
		sinks = append(sinks, a.feed)
	}

	if c.S3.Bucket != "" {
		a.archiver, err = blob.New(ctx, c.S3)
		if err != nil {
			a.close()
			return nil, err
		}
		sinks = append(sinks, a.archiver)
	}

	a.loop = engine.NewLoop(report.NewWriter(c.Reports.Dir), observers, sinks...)
	a.loop.Tick = c.Loop.Tick
	logger.Debug("CLI", fmt.Sprintf("wired %d cycle sinks, %d observers", len(sinks), len(observers)))
	return a, nil
}

func (a *app) close() {
	if a.feed != nil {
		if err := a.feed.Close(); err != nil {
			logger.Warn("FEED", fmt.Sprintf("close: %v", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn("DB", fmt.Sprintf("close: %v", err))
		}
	}
}
