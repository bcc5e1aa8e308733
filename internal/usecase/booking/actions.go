package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
)

// Action is one lifecycle command against an existing booking. The set is
// closed; ParseAction builds it from the wire kinds used by the dashboards.
type Action interface {
	run(ctx context.Context, e *Engine, a Actor, bookingID string) (*Result, error)
}

type (
	ApproveAction        struct{}
	DeclineAction        struct{}
	MarkDoneAction       struct{}
	ReportIssueAction    struct{}
	ClearIssueAction     struct{}
	ResolveIssueAction   struct{}
	CancelAction         struct{}
	MarkNoShowAction     struct{}
	RetryRemainderAction struct{}
	// ForceChargeAction charges exactly like RetryRemainderAction; it is a
	// separate kind so the audit trail shows the admin's intent.
	ForceChargeAction struct{}
	RescheduleAction  struct{ StartAt time.Time }
)

func (ApproveAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.Approve(ctx, a, id)
}

func (DeclineAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.Decline(ctx, a, id)
}

func (MarkDoneAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.MarkProviderDone(ctx, a, id)
}

func (ReportIssueAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.ReportIssue(ctx, a, id)
}

func (ClearIssueAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.ClearIssue(ctx, a, id)
}

func (ResolveIssueAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.ResolveIssue(ctx, a, id)
}

func (CancelAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.Cancel(ctx, a, id)
}

func (MarkNoShowAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.MarkNoShow(ctx, a, id)
}

func (RetryRemainderAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.ChargeRemainder(ctx, a, id)
}

func (ForceChargeAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	b, err := e.getBooking(ctx, a, id)
	if err != nil {
		return nil, err
	}
	e.record(a, b, "remainder.force_requested", nil)
	return e.ChargeRemainder(ctx, a, id)
}

func (r RescheduleAction) run(ctx context.Context, e *Engine, a Actor, id string) (*Result, error) {
	return e.Reschedule(ctx, a, id, r.StartAt)
}

// Dispatch runs action against bookingID on behalf of a.
func (e *Engine) Dispatch(ctx context.Context, a Actor, bookingID string, action Action) (*Result, error) {
	if action == nil {
		return nil, httperr.Validation("unknown_action")
	}
	return action.run(ctx, e, a, bookingID)
}

// ParseAction maps a wire kind to its Action. startAt is only read by
// "reschedule" and must be RFC 3339.
func ParseAction(kind, startAt string) (Action, error) {
	switch kind {
	case "approve":
		return ApproveAction{}, nil
	case "decline":
		return DeclineAction{}, nil
	case "mark_done":
		return MarkDoneAction{}, nil
	case "report_issue":
		return ReportIssueAction{}, nil
	case "clear_issue":
		return ClearIssueAction{}, nil
	case "resolve_issue":
		return ResolveIssueAction{}, nil
	case "cancel":
		return CancelAction{}, nil
	case "mark_no_show":
		return MarkNoShowAction{}, nil
	case "retry_remainder":
		return RetryRemainderAction{}, nil
	case "force_charge_remainder":
		return ForceChargeAction{}, nil
	case "reschedule":
		t, err := time.Parse(time.RFC3339, startAt)
		if err != nil {
			return nil, httperr.Wrap(httperr.KindValidation, "invalid_start_at", err)
		}
		return RescheduleAction{StartAt: t}, nil
	}
	return nil, httperr.Validation("unknown_action")
}
