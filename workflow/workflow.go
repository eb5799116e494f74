package workflow

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/warenwerk/palletkit/completion"
	"github.com/warenwerk/palletkit/errors"
	"github.com/warenwerk/palletkit/feed"
	"github.com/warenwerk/palletkit/loadlist"
	"github.com/warenwerk/palletkit/logging"
	"github.com/warenwerk/palletkit/signature"
	"github.com/warenwerk/palletkit/taskapi"
	"github.com/warenwerk/palletkit/telemetry"
)

// Outcome is the terminal state of one completion run.
type Outcome string

const (
	// OutcomePending: signature valid, task not yet checked in. Returned
	// by Status only; the caller renders the confirmation prompt.
	OutcomePending Outcome = "pending"

	// OutcomeAlreadyDone: the completion log already holds a record. The
	// remote task is not touched; CompletedAt is the original timestamp.
	OutcomeAlreadyDone Outcome = "already_done"

	// OutcomeClosedNoLabel: closed and logged, but no commission label was
	// recovered (or the caller skipped the sibling query).
	OutcomeClosedNoLabel Outcome = "closed_no_label"

	// OutcomeClosedWithList: closed and logged, Remaining holds the still
	// open sibling pallets of the same commission, sorted.
	OutcomeClosedWithList Outcome = "closed_with_list"
)

// Result describes a finished completion run.
type Result struct {
	Outcome     Outcome
	TaskID      string
	CompletedAt time.Time
	Label       string
	Remaining   []taskapi.Task
}

// Engine orchestrates a pallet check-in: verify the scan signature,
// consult the completion log, close the remote task, record the
// completion, and collect the commission's remaining open pallets.
//
// Rejected signatures and failed remote closes are returned as coded
// errors (FORBIDDEN and the remote error respectively), never as a
// Result; neither leaves any state behind.
type Engine struct {
	signer  *signature.Signer
	log     completion.Store
	gateway taskapi.Gateway
	feed    feed.Feed
	logger  *logging.Logger
	now     func() time.Time
}

// NewEngine creates a completion engine. The feed is optional; pass nil
// when no live dashboard is wired up.
func NewEngine(signer *signature.Signer, store completion.Store, gateway taskapi.Gateway, f feed.Feed, logger *logging.Logger) *Engine {
	return &Engine{
		signer:  signer,
		log:     store,
		gateway: gateway,
		feed:    f,
		logger:  logger.WithComponent("workflow"),
		now:     time.Now,
	}
}

// Status answers the confirmation prompt without mutating anything:
// OutcomePending when the pallet is still open, OutcomeAlreadyDone with
// the original timestamp when it was checked in before.
func (e *Engine) Status(ctx context.Context, taskID, sig string) (*Result, error) {
	if err := e.verify(taskID, sig); err != nil {
		return nil, err
	}

	ts, err := e.log.Get(ctx, taskID)
	switch {
	case err == nil:
		return &Result{Outcome: OutcomeAlreadyDone, TaskID: taskID, CompletedAt: ts}, nil
	case stderrors.Is(err, completion.ErrNotFound):
		return &Result{Outcome: OutcomePending, TaskID: taskID}, nil
	default:
		return nil, errors.Wrap(err, "consult completion log")
	}
}

// Complete runs the full check-in, including the remaining-pallets
// query for the recovered commission label.
func (e *Engine) Complete(ctx context.Context, taskID, sig string) (*Result, error) {
	return e.complete(ctx, taskID, sig, true)
}

// CompleteDirect is the legacy variant: identical verification, close
// and log, but no sibling query. The result is never OutcomeClosedWithList.
func (e *Engine) CompleteDirect(ctx context.Context, taskID, sig string) (*Result, error) {
	return e.complete(ctx, taskID, sig, false)
}

func (e *Engine) complete(ctx context.Context, taskID, sig string, withList bool) (res *Result, err error) {
	ctx, span := telemetry.GetTracer().StartWorkflowSpan(ctx, taskID)
	defer func() {
		outcome := "failed"
		if res != nil {
			outcome = string(res.Outcome)
		} else if errors.Code(err) == errors.ErrCodeForbidden {
			outcome = "rejected"
		} else if err != nil {
			outcome = "close_failed"
		}
		telemetry.GetTracer().EndWorkflowSpan(span, outcome, err)
	}()

	if err := e.verify(taskID, sig); err != nil {
		return nil, err
	}

	// Log hit short-circuits before any remote call; the stored
	// timestamp is the one shown, not the time of this scan.
	ts, err := e.log.Get(ctx, taskID)
	switch {
	case err == nil:
		return &Result{Outcome: OutcomeAlreadyDone, TaskID: taskID, CompletedAt: ts}, nil
	case !stderrors.Is(err, completion.ErrNotFound):
		return nil, errors.Wrap(err, "consult completion log")
	}

	// Best-effort label recovery. A failing fetch only costs the
	// remaining-list enrichment, never the close itself.
	label := ""
	if task, err := e.gateway.GetTask(ctx, taskID); err != nil {
		e.logger.Warn("label recovery failed", map[string]interface{}{
			"task_id": taskID,
			"err":     err,
		})
	} else if len(task.Labels) > 0 {
		label = task.Labels[0]
	}

	// The remote service is the system of record; close it first. On
	// failure nothing is recorded and the caller retries from scratch.
	if err := e.gateway.CloseTask(ctx, taskID); err != nil {
		return nil, errors.Wrapf(err, "close task %s", taskID)
	}

	closedAt := e.now()
	recorded, err := e.log.SetIfAbsent(ctx, taskID, closedAt)
	if err != nil {
		// The physical action succeeded; a log failure here only costs
		// the "already done" page on a future rescan. The feed and the
		// rendered page still carry the close time.
		e.logger.Error("completion close succeeded but log write failed", map[string]interface{}{
			"task_id": taskID,
			"err":     err,
		})
		recorded = closedAt
	}

	e.publish(feed.Event{TaskID: taskID, Label: label, CompletedAt: recorded})

	result := &Result{
		Outcome:     OutcomeClosedNoLabel,
		TaskID:      taskID,
		CompletedAt: recorded,
		Label:       label,
	}
	if !withList || label == "" {
		return result, nil
	}

	remaining, err := e.gateway.ListOpenByLabel(ctx, label)
	if err != nil {
		e.logger.Warn("remaining-list query failed", map[string]interface{}{
			"task_id": taskID,
			"label":   label,
			"err":     err,
		})
		return result, nil
	}

	loadlist.SortTasks(remaining)
	result.Outcome = OutcomeClosedWithList
	result.Remaining = remaining
	return result, nil
}

func (e *Engine) verify(taskID, sig string) error {
	if taskID == "" {
		return errors.InvalidInput("missing task id")
	}
	if !e.signer.Verify(taskID, sig) {
		return errors.Forbidden("invalid completion signature", errors.WithTaskID(taskID))
	}
	return nil
}

func (e *Engine) publish(ev feed.Event) {
	if e.feed == nil {
		return
	}
	if err := e.feed.Publish(ev); err != nil {
		e.logger.Warn("feed publish failed", map[string]interface{}{
			"task_id": ev.TaskID,
			"err":     err,
		})
	}
}
