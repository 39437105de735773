package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventmigrate/backend/internal/importer"
	"eventmigrate/backend/internal/logging"
	"eventmigrate/backend/internal/models"
)

type fakeQueue struct {
	mu       sync.Mutex
	queued   []models.ImportJob
	done     map[string][]string
	failed   map[string]string
	touches  map[string]int
	requeues int
}

func newFakeQueue(jobs ...models.ImportJob) *fakeQueue {
	return &fakeQueue{queued: jobs, done: map[string][]string{}, failed: map[string]string{}, touches: map[string]int{}}
}

func (q *fakeQueue) ClaimImportJob(ctx context.Context) (models.ImportJob, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queued) == 0 {
		return models.ImportJob{}, false, nil
	}
	job := q.queued[0]
	q.queued = q.queued[1:]
	job.Status = models.JobRunning
	job.Attempts++
	return job, true, nil
}

func (q *fakeQueue) CompleteImportJob(ctx context.Context, id string, slugs []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.done[id] = slugs
	return nil
}

func (q *fakeQueue) FailImportJob(ctx context.Context, id string, slugs []string, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[id] = message
	return nil
}

func (q *fakeQueue) TouchImportJob(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.touches[id]++
	return nil
}

func (q *fakeQueue) RequeueStaleImportJobs(ctx context.Context, staleAfter time.Duration, maxAttempts int) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeues++
	return 0, nil
}

type fakeImporter struct {
	mu       sync.Mutex
	requests []importer.Request
	err      error
}

func (f *fakeImporter) ImportEvents(ctx context.Context, req importer.Request) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	slugs := make([]string, 0, len(req.EventIDs))
	for i, id := range req.EventIDs {
		slug := "conf2024"
		if i > 0 {
			slug = fmt.Sprintf("conf2024-%d", i)
		}
		slugs = append(slugs, slug)
		if req.Progress != nil {
			req.Progress(ctx, id, slug)
		}
	}
	return slugs, nil
}

func TestRunOnceCompletesJob(t *testing.T) {
	t.Parallel()

	queue := newFakeQueue(models.ImportJob{ID: "a", Organizer: "acme", APIKey: "key", EventIDs: []int64{12}, WithOrders: true})
	imp := &fakeImporter{}
	runner := NewRunner(queue, imp, Options{}, logging.Discard())

	processed, err := runner.RunOnce(context.Background())
	if err != nil || !processed {
		t.Fatalf("RunOnce() = %v, %v", processed, err)
	}
	if len(imp.requests) != 1 || imp.requests[0].Organizer != "acme" || !imp.requests[0].WithOrders || imp.requests[0].APIKey != "key" {
		t.Fatalf("unexpected import request %#v", imp.requests)
	}
	if got := queue.done["a"]; len(got) != 1 || got[0] != "conf2024" {
		t.Fatalf("job not completed: %v", queue.done)
	}

	processed, err = runner.RunOnce(context.Background())
	if err != nil || processed {
		t.Fatalf("empty queue should not process, got %v, %v", processed, err)
	}
}

func TestRunOnceTouchesJobPerEvent(t *testing.T) {
	t.Parallel()

	queue := newFakeQueue(models.ImportJob{ID: "c", Organizer: "acme", APIKey: "key", EventIDs: []int64{12, 13, 14}})
	runner := NewRunner(queue, &fakeImporter{}, Options{}, logging.Discard())

	if _, err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got := queue.touches["c"]; got != 3 {
		t.Fatalf("expected one heartbeat per event, got %d", got)
	}
	if got := queue.done["c"]; len(got) != 3 {
		t.Fatalf("job not completed: %v", queue.done)
	}
}

func TestRunOnceRecordsFailure(t *testing.T) {
	t.Parallel()

	queue := newFakeQueue(models.ImportJob{ID: "b", Organizer: "acme", APIKey: "key", EventIDs: []int64{12}})
	imp := &fakeImporter{err: &importer.EventImportError{EventID: 12, Err: errors.New("remote down")}}
	runner := NewRunner(queue, imp, Options{}, logging.Discard())

	processed, err := runner.RunOnce(context.Background())
	if err != nil || !processed {
		t.Fatalf("RunOnce() = %v, %v", processed, err)
	}
	if msg := queue.failed["b"]; msg == "" {
		t.Fatalf("failure not recorded")
	}
	if _, ok := queue.done["b"]; ok {
		t.Fatalf("failed job marked done")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	queue := newFakeQueue(models.ImportJob{ID: "c", Organizer: "acme", APIKey: "key", EventIDs: []int64{12}})
	imp := &fakeImporter{}
	runner := NewRunner(queue, imp, Options{PollInterval: 10 * time.Millisecond}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() { finished <- runner.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		queue.mu.Lock()
		_, done := queue.done["c"]
		queue.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job was not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if queue.requeues == 0 {
		t.Fatalf("stale jobs were never swept")
	}
}
