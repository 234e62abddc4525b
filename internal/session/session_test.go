package session

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/dispatcher"
	"github.com/Adda-Baaj/webservice-probe/internal/domain"
)

// recordingDisplay captures display calls and flags concurrent use.
type recordingDisplay struct {
	mu         sync.Mutex
	texts      []string
	errors     []string
	active     atomic.Int32
	concurrent atomic.Bool
}

func (d *recordingDisplay) enter() {
	if d.active.Add(1) != 1 {
		d.concurrent.Store(true)
	}
	time.Sleep(time.Millisecond)
}

func (d *recordingDisplay) leave() { d.active.Add(-1) }

func (d *recordingDisplay) ShowText(text string) {
	d.enter()
	defer d.leave()
	d.mu.Lock()
	d.texts = append(d.texts, text)
	d.mu.Unlock()
}

func (d *recordingDisplay) ShowError(title, message string) {
	d.enter()
	defer d.leave()
	d.mu.Lock()
	d.errors = append(d.errors, title+": "+message)
	d.mu.Unlock()
}

func (d *recordingDisplay) snapshot() ([]string, []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...), append([]string(nil), d.errors...)
}

// fakeFetcher returns per-host outcomes; hosts listed in block wait for cancellation.
type fakeFetcher struct {
	mu       sync.Mutex
	calls    []string
	outcomes map[string]domain.Outcome
	block    map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, target *url.URL) domain.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, target.Host)
	f.mu.Unlock()

	if f.block[target.Host] {
		<-ctx.Done()
		return domain.TransportError("The request was cancelled.")
	}
	if o, ok := f.outcomes[target.Host]; ok {
		return o
	}
	return domain.DecodedText("ok from " + target.Host)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func startSession(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
}

func TestSubmitInputErrorsUseErrorSurface(t *testing.T) {
	fetcher := &fakeFetcher{}
	display := &recordingDisplay{}
	s := New(fetcher, display, nil)
	startSession(t, s)

	s.Submit(domain.RequestInput{Raw: "   "})
	s.Submit(domain.RequestInput{Raw: "not a url"})
	s.Wait()

	texts, errs := display.snapshot()
	if len(texts) != 0 {
		t.Fatalf("expected no text updates, got %v", texts)
	}
	want := []string{
		"Error: Please enter a URL of the webservice.",
		"Error: Please enter a valid URL.",
	}
	if len(errs) != len(want) || errs[0] != want[0] || errs[1] != want[1] {
		t.Fatalf("unexpected errors %v", errs)
	}
	if fetcher.callCount() != 0 {
		t.Fatalf("expected no fetches for invalid input")
	}
}

func TestSubmitShowsPendingThenResult(t *testing.T) {
	fetcher := &fakeFetcher{outcomes: map[string]domain.Outcome{
		"api.example": domain.HTTPError(404),
	}}
	display := &recordingDisplay{}
	s := New(fetcher, display, nil)
	startSession(t, s)

	s.Submit(domain.RequestInput{Raw: "https://api.example/thing"})
	s.Wait()

	texts, _ := display.snapshot()
	if len(texts) != 2 || texts[0] != dispatcher.PendingMessage || texts[1] != "Bad response code: 404" {
		t.Fatalf("unexpected display sequence %v", texts)
	}
}

func TestNewSubmissionCancelsPrevious(t *testing.T) {
	fetcher := &fakeFetcher{block: map[string]bool{"slow.example": true}}
	display := &recordingDisplay{}

	var mu sync.Mutex
	var seen []domain.Submission
	obs := ObserverFunc(func(_ context.Context, sub domain.Submission) {
		mu.Lock()
		seen = append(seen, sub)
		mu.Unlock()
	})

	s := New(fetcher, display, nil, obs)
	startSession(t, s)

	s.Submit(domain.RequestInput{Raw: "https://slow.example/"})
	waitFor(t, func() bool { return fetcher.callCount() == 1 })
	s.Submit(domain.RequestInput{Raw: "https://fast.example/"})
	s.Wait()

	texts, _ := display.snapshot()
	for _, txt := range texts {
		if txt == "The request was cancelled." {
			t.Fatalf("superseded result was rendered: %v", texts)
		}
	}
	if last := texts[len(texts)-1]; last != "ok from fast.example" {
		t.Fatalf("expected latest result last, got %v", texts)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0].URL != "https://fast.example/" {
		t.Fatalf("expected only the latest submission to be observed, got %+v", seen)
	}
	if seen[0].Rendered != "ok from fast.example" || seen[0].ID == "" {
		t.Fatalf("unexpected observed submission %+v", seen[0])
	}
}

func TestDisplayIsNeverCalledConcurrently(t *testing.T) {
	fetcher := &fakeFetcher{}
	display := &recordingDisplay{}
	s := New(fetcher, display, nil)
	startSession(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				s.Submit(domain.RequestInput{Raw: ""})
				return
			}
			s.Submit(domain.RequestInput{Raw: "https://host.example/"})
		}(i)
	}
	wg.Wait()
	s.Wait()

	if display.concurrent.Load() {
		t.Fatalf("display was called from more than one goroutine at once")
	}
}

func TestSubmitAfterShutdownDoesNotBlock(t *testing.T) {
	s := New(&fakeFetcher{}, &recordingDisplay{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	finished := make(chan struct{})
	go func() {
		for i := 0; i < updateQueueSize+5; i++ {
			s.Submit(domain.RequestInput{Raw: "https://late.example/"})
		}
		s.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Submit blocked after Run returned")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

type supersededRecorder struct {
	mu   sync.Mutex
	seen []string
	done []string
}

func (r *supersededRecorder) OnSubmission(_ context.Context, sub domain.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, sub.URL)
}

func (r *supersededRecorder) OnSuperseded(_ context.Context, sub domain.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, sub.URL)
}

func TestSupersededObserversAreNotified(t *testing.T) {
	fetcher := &fakeFetcher{block: map[string]bool{"slow.example": true}}
	rec := &supersededRecorder{}
	s := New(fetcher, &recordingDisplay{}, nil, rec)
	startSession(t, s)

	s.Submit(domain.RequestInput{Raw: "https://slow.example/"})
	waitFor(t, func() bool { return fetcher.callCount() == 1 })
	s.Submit(domain.RequestInput{Raw: "https://fast.example/"})
	s.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seen) != 1 || rec.seen[0] != "https://slow.example/" {
		t.Fatalf("expected slow submission to be reported superseded, got %v", rec.seen)
	}
	if len(rec.done) != 1 || rec.done[0] != "https://fast.example/" {
		t.Fatalf("expected fast submission to be observed, got %v", rec.done)
	}
}
