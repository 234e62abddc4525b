package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/config"
	"github.com/Adda-Baaj/webservice-probe/internal/console"
	"github.com/Adda-Baaj/webservice-probe/internal/dispatcher"
	"github.com/Adda-Baaj/webservice-probe/internal/logger"
	"github.com/Adda-Baaj/webservice-probe/internal/metrics"
	"github.com/Adda-Baaj/webservice-probe/internal/session"
	"github.com/Adda-Baaj/webservice-probe/internal/storage"
	"github.com/Adda-Baaj/webservice-probe/pkg/bookmarks"
	"github.com/Adda-Baaj/webservice-probe/pkg/httpclient"
	"github.com/Adda-Baaj/webservice-probe/pkg/publishers"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsShutdownTimeout = 5 * time.Second

// Probe is the interactive webservice probe runtime. It owns the dispatcher,
// the optional history store and publishers, and the metrics endpoint.
type Probe struct {
	cfg        *config.Config
	log        logger.Logger
	dispatcher *dispatcher.Dispatcher
	bookmarks  *bookmarks.Registry
	store      storage.Store
	fanout     *publishers.Fanout
	recorder   *metrics.Recorder
}

// NewProbe builds a probe runtime from config.
func NewProbe(ctx context.Context, cfg *config.Config, log logger.Logger) (*Probe, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	client := httpclient.NewRestyClient(cfg.RequestTimeout)
	p := &Probe{
		cfg:        cfg,
		log:        log,
		dispatcher: dispatcher.New(client, log),
		recorder:   metrics.NewRecorder(prometheus.NewRegistry()),
	}

	if cfg.BookmarksFile != "" {
		reg, err := bookmarks.LoadRegistry(cfg.BookmarksFile)
		if err != nil {
			return nil, fmt.Errorf("load bookmarks: %w", err)
		}
		var ids []string
		for _, bm := range reg.All() {
			ids = append(ids, bm.ID)
		}
		log.InfoObj("bookmarks loaded", "bookmarks_meta", map[string]any{
			"count": len(ids),
			"ids":   ids,
		})
		p.bookmarks = reg
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	p.store = store
	if storage.Enabled(store) {
		log.InfoObj("storage initialized", "storage_config", map[string]any{
			"type":                     cfg.StorageType,
			"path":                     cfg.BBoltPath,
			"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
			"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		})
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		p.closeStore()
		return nil, err
	}
	p.fanout = fanout

	return p, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	clients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(clients), nil
}

// Recorder exposes the metrics recorder.
func (p *Probe) Recorder() *metrics.Recorder {
	if p == nil {
		return nil
	}
	return p.recorder
}

// Run reads submissions from in and writes rendered outcomes to out until the
// input ends, the user quits, or ctx is cancelled. It releases the store and
// publishers before returning.
func (p *Probe) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if p == nil || p.dispatcher == nil {
		return fmt.Errorf("probe is not initialized")
	}
	defer p.close()

	opts := console.Options{HistoryLimit: p.cfg.HistoryLimit}
	if p.bookmarks != nil {
		opts.Bookmarks = p.bookmarks
	}
	if storage.Enabled(p.store) {
		opts.History = p.store
	}
	con := console.New(in, out, opts)
	sess := session.New(p.dispatcher, con, p.log, p.observers()...)
	con.Attach(sess)

	stopMetrics := p.serveMetrics()
	defer stopMetrics()

	sessCtx, cancelSess := context.WithCancel(context.Background())
	sessDone := make(chan error, 1)
	go func() { sessDone <- sess.Run(sessCtx) }()
	defer func() {
		cancelSess()
		<-sessDone
	}()

	conDone := make(chan error, 1)
	go func() { conDone <- con.Run(ctx) }()

	p.log.InfoObj("probe ready", "probe_state", map[string]any{
		"publishers_count": p.fanout.Size(),
		"history_enabled":  storage.Enabled(p.store),
		"metrics_addr":     p.cfg.MetricsAddr,
	})

	select {
	case <-ctx.Done():
		p.log.InfoObj("probe exiting", "reason", ctx.Err())
		return nil
	case err := <-conDone:
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		return nil
	}
}

func (p *Probe) observers() []session.Observer {
	obs := []session.Observer{&metricsObserver{recorder: p.recorder}}
	if storage.Enabled(p.store) {
		obs = append(obs, &historyObserver{store: p.store, recorder: p.recorder, log: p.log})
	}
	if p.fanout.Size() > 0 {
		obs = append(obs, &publishObserver{fanout: p.fanout, recorder: p.recorder, log: p.log})
	}
	return obs
}

// serveMetrics starts the Prometheus endpoint when an address is configured
// and returns a function that stops it.
func (p *Probe) serveMetrics() func() {
	if p.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.recorder.Handler())
	srv := &http.Server{
		Addr:              p.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.ErrorObj("metrics server failed", "error", err)
		}
	}()
	p.log.InfoObj("metrics endpoint listening", "metrics_addr", p.cfg.MetricsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			p.log.WarnObj("metrics server shutdown failed", "error", err)
		}
	}
}

func (p *Probe) close() {
	p.closeStore()
	if err := p.fanout.Close(); err != nil {
		p.log.ErrorObj("publisher close failed", "error", err)
	}
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (p *Probe) closeStore() {
	if p == nil || p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		p.log.ErrorObj("storage close failed", "error", err)
	}
}
