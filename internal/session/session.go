package session

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/dispatcher"
	"github.com/Adda-Baaj/webservice-probe/internal/domain"
	"github.com/Adda-Baaj/webservice-probe/internal/logger"
	"github.com/google/uuid"
)

const (
	updateQueueSize       = 16
	notificationQueueSize = 64
)

// Display is the single surface outcomes are written to. Session calls it
// from exactly one goroutine.
type Display interface {
	ShowText(text string)
	ShowError(title, message string)
}

// Fetcher performs the network half of a dispatch for a validated URL.
type Fetcher interface {
	Fetch(ctx context.Context, target *url.URL) domain.Outcome
}

// Observer is told about every rendered submission, after the display was updated.
type Observer interface {
	OnSubmission(ctx context.Context, sub domain.Submission)
}

// SupersededObserver is optionally implemented by observers that want to
// know about results dropped in favour of a newer submission.
type SupersededObserver interface {
	OnSuperseded(ctx context.Context, sub domain.Submission)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, sub domain.Submission)

func (f ObserverFunc) OnSubmission(ctx context.Context, sub domain.Submission) { f(ctx, sub) }

// Session serializes display updates for a stream of submissions. A new
// submission cancels the one in flight; a superseded result is never rendered.
type Session struct {
	fetcher   Fetcher
	display   Display
	observers []Observer
	log       logger.Logger

	updates       chan func()
	notifications chan func()
	done          chan struct{}

	baseCtx context.Context
	stop    context.CancelFunc

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	inflight   sync.WaitGroup
}

// New wires a session. Run must be called to start delivering updates.
func New(fetcher Fetcher, display Display, log logger.Logger, observers ...Observer) *Session {
	baseCtx, stop := context.WithCancel(context.Background())
	obs := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			obs = append(obs, o)
		}
	}
	return &Session{
		fetcher:       fetcher,
		display:       display,
		observers:     obs,
		log:           logger.Ensure(log),
		updates:       make(chan func(), updateQueueSize),
		notifications: make(chan func(), notificationQueueSize),
		done:          make(chan struct{}),
		baseCtx:       baseCtx,
		stop:          stop,
	}
}

// Run owns the display until ctx is cancelled. All Display calls happen on
// the goroutine executing Run; observers run serially on a second goroutine.
func (s *Session) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.notifyLoop()
	}()

	defer func() {
		s.stop()
		close(s.done)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.updates:
			fn()
		}
	}
}

func (s *Session) notifyLoop() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.notifications:
			fn()
		}
	}
}

// Submit validates input and, when it is a usable URL, starts a dispatch in
// the background. It returns the submission id.
func (s *Session) Submit(in domain.RequestInput) string {
	id := uuid.NewString()
	started := time.Now()

	target, outcome, ok := dispatcher.ParseTarget(in)
	if !ok {
		sub := domain.Submission{ID: id, Input: in, Outcome: outcome, StartedAt: started}
		s.post(func() { s.deliver(sub) })
		return id
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.inflight.Add(1)
	s.mu.Unlock()

	s.post(func() { s.display.ShowText(dispatcher.PendingMessage) })

	go func() {
		defer s.inflight.Done()
		defer cancel()

		outcome := s.fetcher.Fetch(ctx, target)
		sub := domain.Submission{
			ID:        id,
			Input:     in,
			URL:       target.String(),
			Outcome:   outcome,
			StartedAt: started,
			Elapsed:   time.Since(started),
		}
		s.post(func() {
			if !s.isCurrent(gen) {
				s.log.DebugObj("dropping superseded result", "submission", map[string]any{
					"id":      id,
					"url":     target.Redacted(),
					"outcome": string(outcome.Kind),
				})
				s.notifySuperseded(sub)
				return
			}
			s.deliver(sub)
		})
	}()
	return id
}

// Wait blocks until nothing is in flight and every queued update and
// notification has been processed.
func (s *Session) Wait() {
	s.inflight.Wait()
	barrier := make(chan struct{})
	s.post(func() {
		s.notify(func() { close(barrier) })
	})
	select {
	case <-barrier:
	case <-s.done:
	}
}

// deliver renders a submission and queues observer notifications. Runs on
// the display goroutine.
func (s *Session) deliver(sub domain.Submission) {
	sub.Rendered = dispatcher.Render(sub.Outcome)
	if sub.Outcome.IsInputError() {
		s.display.ShowError(dispatcher.ErrorTitle, sub.Rendered)
	} else {
		s.display.ShowText(sub.Rendered)
	}

	if len(s.observers) == 0 {
		return
	}
	s.notify(func() {
		for _, o := range s.observers {
			o.OnSubmission(s.baseCtx, sub)
		}
	})
}

func (s *Session) notifySuperseded(sub domain.Submission) {
	var targets []SupersededObserver
	for _, o := range s.observers {
		if so, ok := o.(SupersededObserver); ok {
			targets = append(targets, so)
		}
	}
	if len(targets) == 0 {
		return
	}
	s.notify(func() {
		for _, so := range targets {
			so.OnSuperseded(s.baseCtx, sub)
		}
	})
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

func (s *Session) post(fn func()) {
	select {
	case s.updates <- fn:
	case <-s.done:
	}
}

func (s *Session) notify(fn func()) {
	select {
	case s.notifications <- fn:
	case <-s.done:
	}
}
