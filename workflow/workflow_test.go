package workflow

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/warenwerk/palletkit/completion"
	"github.com/warenwerk/palletkit/errors"
	"github.com/warenwerk/palletkit/feed"
	"github.com/warenwerk/palletkit/logging"
	"github.com/warenwerk/palletkit/signature"
	"github.com/warenwerk/palletkit/taskapi"
)

// fakeGateway implements taskapi.Gateway for workflow tests.
type fakeGateway struct {
	tasks       map[string]*taskapi.Task
	openByLabel map[string][]taskapi.Task

	getErr   error
	closeErr error
	listErr  error

	getCalls   int
	closeCalls int
	listCalls  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		tasks:       make(map[string]*taskapi.Task),
		openByLabel: make(map[string][]taskapi.Task),
	}
}

func (g *fakeGateway) CreateTask(ctx context.Context, content string, labels []string, priority int) (*taskapi.Task, error) {
	return nil, stderrors.New("not implemented")
}

func (g *fakeGateway) GetTask(ctx context.Context, taskID string) (*taskapi.Task, error) {
	g.getCalls++
	if g.getErr != nil {
		return nil, g.getErr
	}
	task, ok := g.tasks[taskID]
	if !ok {
		return nil, errors.NotFound("task not found")
	}
	return task, nil
}

func (g *fakeGateway) CloseTask(ctx context.Context, taskID string) error {
	g.closeCalls++
	return g.closeErr
}

func (g *fakeGateway) ListOpenByLabel(ctx context.Context, label string) ([]taskapi.Task, error) {
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]taskapi.Task(nil), g.openByLabel[label]...), nil
}

func (g *fakeGateway) ListOpenByProject(ctx context.Context) ([]taskapi.Task, error) {
	return nil, nil
}

func (g *fakeGateway) ListLabels(ctx context.Context) ([]taskapi.Label, error) {
	return nil, nil
}

func newTestEngine(t *testing.T, gw taskapi.Gateway, f feed.Feed) (*Engine, *signature.Signer, completion.Store) {
	t.Helper()
	signer, err := signature.NewSigner("test-secret")
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	store := completion.NewMemoryStore()
	return NewEngine(signer, store, gw, f, logging.New()), signer, store
}

func TestCompleteIdempotent(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["4711"] = &taskapi.Task{ID: "4711", Content: "Palette 3", Labels: []string{"K100"}}

	engine, signer, _ := newTestEngine(t, gw, nil)
	ctx := context.Background()
	sig := signer.Sign("4711")

	first, err := engine.Complete(ctx, "4711", sig)
	if err != nil {
		t.Fatalf("First Complete failed: %v", err)
	}
	if first.Outcome != OutcomeClosedNoLabel && first.Outcome != OutcomeClosedWithList {
		t.Fatalf("Unexpected first outcome %s", first.Outcome)
	}

	second, err := engine.Complete(ctx, "4711", sig)
	if err != nil {
		t.Fatalf("Second Complete failed: %v", err)
	}
	if second.Outcome != OutcomeAlreadyDone {
		t.Errorf("Expected already_done on second scan, got %s", second.Outcome)
	}
	if !second.CompletedAt.Equal(first.CompletedAt) {
		t.Errorf("Timestamp changed across scans: %v vs %v", first.CompletedAt, second.CompletedAt)
	}
	if gw.closeCalls != 1 {
		t.Errorf("Expected exactly one remote close, got %d", gw.closeCalls)
	}
}

func TestCompleteRejectsBadSignature(t *testing.T) {
	gw := newFakeGateway()
	engine, _, store := newTestEngine(t, gw, nil)
	ctx := context.Background()

	_, err := engine.Complete(ctx, "4711", "deadbeef")
	if errors.Code(err) != errors.ErrCodeForbidden {
		t.Fatalf("Expected FORBIDDEN, got %v", err)
	}
	if gw.getCalls != 0 || gw.closeCalls != 0 {
		t.Error("Rejected scan must not touch the remote service")
	}
	if _, err := store.Get(ctx, "4711"); !stderrors.Is(err, completion.ErrNotFound) {
		t.Error("Rejected scan must not touch the completion log")
	}
}

func TestCompleteRemainingListOrdered(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["1"] = &taskapi.Task{ID: "1", Labels: []string{"K100"}}
	gw.openByLabel["K100"] = []taskapi.Task{
		{ID: "2", Content: "Palette 2", Priority: 1, Labels: []string{"K100"}},
		{ID: "3", Content: "Palette 3", Priority: 3, Labels: []string{"K100"}},
	}

	engine, signer, _ := newTestEngine(t, gw, nil)
	res, err := engine.Complete(context.Background(), "1", signer.Sign("1"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if res.Outcome != OutcomeClosedWithList {
		t.Fatalf("Expected closed_with_list, got %s", res.Outcome)
	}
	if res.Label != "K100" {
		t.Errorf("Expected label K100, got %q", res.Label)
	}
	if len(res.Remaining) != 2 || res.Remaining[0].Priority != 3 || res.Remaining[1].Priority != 1 {
		t.Errorf("Remaining list not priority-ordered: %+v", res.Remaining)
	}
}

func TestCompleteCloseFailureRecordsNothing(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["9"] = &taskapi.Task{ID: "9", Labels: []string{"K200"}}
	gw.closeErr = errors.Unavailable("task service down")

	engine, signer, store := newTestEngine(t, gw, nil)
	ctx := context.Background()

	_, err := engine.Complete(ctx, "9", signer.Sign("9"))
	if err == nil {
		t.Fatal("Expected error when remote close fails")
	}
	if errors.Code(err) != errors.ErrCodeUnavailable {
		t.Errorf("Expected UNAVAILABLE, got %v", errors.Code(err))
	}
	if _, err := store.Get(ctx, "9"); !stderrors.Is(err, completion.ErrNotFound) {
		t.Error("Failed close must leave the completion log untouched")
	}
}

func TestCompleteLabelRecoveryDegrades(t *testing.T) {
	gw := newFakeGateway()
	gw.getErr = errors.Unavailable("task service down")

	engine, signer, _ := newTestEngine(t, gw, nil)
	res, err := engine.Complete(context.Background(), "7", signer.Sign("7"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if res.Outcome != OutcomeClosedNoLabel {
		t.Errorf("Expected closed_no_label, got %s", res.Outcome)
	}
	if gw.closeCalls != 1 {
		t.Errorf("Close must still run when label recovery fails, got %d calls", gw.closeCalls)
	}
}

func TestCompleteListFailureDegrades(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["5"] = &taskapi.Task{ID: "5", Labels: []string{"K300"}}
	gw.listErr = errors.Unavailable("task service down")

	engine, signer, _ := newTestEngine(t, gw, nil)
	res, err := engine.Complete(context.Background(), "5", signer.Sign("5"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if res.Outcome != OutcomeClosedNoLabel {
		t.Errorf("Expected degraded closed_no_label, got %s", res.Outcome)
	}
	if len(res.Remaining) != 0 {
		t.Errorf("Expected empty remaining list, got %+v", res.Remaining)
	}
}

func TestCompleteDirectSkipsSiblingQuery(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["8"] = &taskapi.Task{ID: "8", Labels: []string{"K400"}}
	gw.openByLabel["K400"] = []taskapi.Task{{ID: "10", Priority: 2}}

	engine, signer, _ := newTestEngine(t, gw, nil)
	res, err := engine.CompleteDirect(context.Background(), "8", signer.Sign("8"))
	if err != nil {
		t.Fatalf("CompleteDirect failed: %v", err)
	}
	if res.Outcome != OutcomeClosedNoLabel {
		t.Errorf("Expected closed_no_label, got %s", res.Outcome)
	}
	if gw.listCalls != 0 {
		t.Errorf("Legacy completion must not query siblings, got %d calls", gw.listCalls)
	}
}

func TestCompletePublishesFeedEvent(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["4711"] = &taskapi.Task{ID: "4711", Labels: []string{"K100"}}

	f := feed.NewMemoryFeed(feed.Config{})
	defer f.Close()
	sub, err := f.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	engine, signer, _ := newTestEngine(t, gw, f)
	if _, err := engine.Complete(context.Background(), "4711", signer.Sign("4711")); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.TaskID != "4711" || ev.Label != "K100" {
			t.Errorf("Unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a completion event on the feed")
	}
}

// failingLog rejects every write while behaving as an empty log.
type failingLog struct {
	*completion.MemoryStore
}

func (l *failingLog) SetIfAbsent(ctx context.Context, taskID string, ts time.Time) (time.Time, error) {
	return time.Time{}, stderrors.New("disk full")
}

func TestCompleteLogWriteFailureKeepsCloseTime(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["4711"] = &taskapi.Task{ID: "4711", Labels: []string{"K100"}}

	f := feed.NewMemoryFeed(feed.Config{})
	defer f.Close()
	sub, err := f.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	signer, err := signature.NewSigner("test-secret")
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	engine := NewEngine(signer, &failingLog{completion.NewMemoryStore()}, gw, f, logging.New())

	// Every clock read returns a later instant, so a second read after
	// the failed log write would shift the reported completion time.
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	reads := 0
	engine.now = func() time.Time {
		reads++
		return base.Add(time.Duration(reads) * time.Minute)
	}

	res, err := engine.Complete(context.Background(), "4711", signer.Sign("4711"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	want := base.Add(time.Minute)
	if !res.CompletedAt.Equal(want) {
		t.Errorf("Expected the close time %v, got %v", want, res.CompletedAt)
	}

	select {
	case ev := <-sub.Events():
		if !ev.CompletedAt.Equal(res.CompletedAt) {
			t.Errorf("Feed event time %v differs from result %v", ev.CompletedAt, res.CompletedAt)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a completion event despite the log failure")
	}
}

func TestStatus(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["4711"] = &taskapi.Task{ID: "4711"}

	engine, signer, _ := newTestEngine(t, gw, nil)
	ctx := context.Background()
	sig := signer.Sign("4711")

	res, err := engine.Status(ctx, "4711", sig)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if res.Outcome != OutcomePending {
		t.Errorf("Expected pending before completion, got %s", res.Outcome)
	}

	done, err := engine.Complete(ctx, "4711", sig)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	res, err = engine.Status(ctx, "4711", sig)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if res.Outcome != OutcomeAlreadyDone {
		t.Errorf("Expected already_done after completion, got %s", res.Outcome)
	}
	if !res.CompletedAt.Equal(done.CompletedAt) {
		t.Errorf("Status timestamp %v differs from recorded %v", res.CompletedAt, done.CompletedAt)
	}

	if _, err := engine.Status(ctx, "4711", "bogus"); errors.Code(err) != errors.ErrCodeForbidden {
		t.Errorf("Expected FORBIDDEN on bad signature, got %v", err)
	}
}
