package app

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/domain"
	"github.com/Adda-Baaj/webservice-probe/internal/logger"
	"github.com/Adda-Baaj/webservice-probe/internal/metrics"
	"github.com/Adda-Baaj/webservice-probe/internal/storage"
	"github.com/Adda-Baaj/webservice-probe/pkg/pagemeta"
	"github.com/Adda-Baaj/webservice-probe/pkg/publishers"
)

const publishTimeout = 10 * time.Second

// historyObserver appends every rendered submission to the history store.
type historyObserver struct {
	store    storage.Store
	recorder *metrics.Recorder
	log      logger.Logger
}

func (h *historyObserver) OnSubmission(_ context.Context, sub domain.Submission) {
	target := sub.URL
	if target == "" {
		target = strings.TrimSpace(sub.Input.Raw)
	}
	entry := domain.HistoryEntry{
		ID:         sub.ID,
		URL:        target,
		Kind:       sub.Outcome.Kind,
		StatusCode: sub.Outcome.StatusCode,
		At:         sub.StartedAt,
	}
	if err := h.store.Record(entry); err != nil {
		h.recorder.ObserveHistoryFailure()
		h.log.WarnObj("history write failed", "history_error", map[string]any{
			"submission_id": sub.ID,
			"error":         err.Error(),
		})
	}
}

// metricsObserver feeds the Prometheus recorder.
type metricsObserver struct {
	recorder *metrics.Recorder
}

func (m *metricsObserver) OnSubmission(_ context.Context, sub domain.Submission) {
	m.recorder.ObserveDispatch(string(sub.Outcome.Kind), sub.Outcome.StatusCode, sub.Elapsed)
}

func (m *metricsObserver) OnSuperseded(context.Context, domain.Submission) {
	m.recorder.ObserveSuperseded()
}

// eventPublisher is the slice of publishers.Fanout the observer needs.
type eventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
}

// publishObserver fans outcome events out to the configured sinks. Input
// errors never reached the network and are not published.
type publishObserver struct {
	fanout   eventPublisher
	recorder *metrics.Recorder
	log      logger.Logger
	timeout  time.Duration
}

func (p *publishObserver) OnSubmission(ctx context.Context, sub domain.Submission) {
	if sub.Outcome.IsInputError() || p.fanout.Size() == 0 {
		return
	}

	evt := publishers.NewEvent(sub)
	if sub.Outcome.Kind == domain.KindDecodedText && pagemeta.LooksLikeHTML(sub.Outcome.Text) {
		meta, err := pagemeta.Extract(sub.Outcome.Text)
		if err != nil {
			p.log.DebugObj("page summary failed", "pagemeta_error", map[string]any{
				"submission_id": sub.ID,
				"error":         err.Error(),
			})
		} else {
			evt.PageTitle = meta.Title
			evt.PageDescription = meta.Description
		}
	}

	timeout := p.timeout
	if timeout <= 0 {
		timeout = publishTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	delivered, err := p.fanout.Publish(ctx, evt)
	switch {
	case err == nil:
		p.recorder.ObservePublish(metrics.PublishDelivered)
	case delivered > 0:
		p.recorder.ObservePublish(metrics.PublishPartial)
	default:
		p.recorder.ObservePublish(metrics.PublishFailed)
	}
	if err != nil {
		p.log.ErrorObj("outcome publish failed", "publish_error", map[string]any{
			"submission_id": sub.ID,
			"delivered":     delivered,
			"publishers":    p.fanout.Size(),
			"error":         err.Error(),
		})
	}
}
