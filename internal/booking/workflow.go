package booking

import (
	"context"
	"fmt"
	"strings"
)

// State identifies a stage of the booking workflow.
type State string

const (
	// StateAwaitingConfirmation means conflicts were detected and the caller
	// must explicitly confirm or decline before the booking proceeds.
	StateAwaitingConfirmation State = "awaiting_confirmation"
	// StateAccepted means the candidate passed every check and may be handed
	// to persistence.
	StateAccepted State = "accepted"
	// StateRejected means the candidate was refused; Result.RejectReason says why.
	StateRejected State = "rejected"
)

// RejectReason is the machine-readable cause of a workflow rejection.
type RejectReason string

const (
	// RejectMissingField indicates a required candidate field was empty.
	RejectMissingField RejectReason = "missing_field"
	// RejectInvalidInterval indicates the start minute is not strictly
	// before the end minute.
	RejectInvalidInterval RejectReason = "invalid_interval"
	// RejectOutsideWindow indicates the interval fails the weekly policy and
	// the caller lacks the privileged capability.
	RejectOutsideWindow RejectReason = "outside_window"
	// RejectUserCancelledOnConflict indicates the caller declined to proceed
	// past a warned overlap. It is a normal outcome, not an error.
	RejectUserCancelledOnConflict RejectReason = "user_cancelled_on_conflict"
)

// ConfirmFunc is asked whether to proceed past detected overlaps. Returning
// false rejects the candidate with RejectUserCancelledOnConflict.
type ConfirmFunc func(ctx context.Context, overlaps []Overlap) (bool, error)

// Result captures the outcome (or suspension) of a workflow run.
type Result struct {
	State         State
	RejectReason  RejectReason
	PolicyReason  PolicyReason
	MissingFields []string
	Overlaps      []Overlap
	// Candidate echoes the validated candidate so a suspended run can be
	// resumed without re-supplying it.
	Candidate Booking
	// Accepted is set only when State is StateAccepted.
	Accepted *Booking
}

// Run validates a candidate booking end to end: required fields, interval
// sanity, weekly policy, then overlap detection against the provided
// same-date bookings. When overlaps are found the run suspends: with a
// ConfirmFunc the decision is requested inline, otherwise the returned Result
// carries StateAwaitingConfirmation and must be passed to Resume.
//
// The run is a pure computation over its inputs. It writes nothing, so a
// declined confirmation leaves no partial state behind. Two callers racing on
// the same stale snapshot can both be accepted; guarding against that is the
// persistence collaborator's job, not the workflow's.
func Run(ctx context.Context, candidate Booking, existingOnDate []Booking, policy WeeklyPolicy, privileged bool, confirm ConfirmFunc) (Result, error) {
	if missing := missingFields(candidate); len(missing) > 0 {
		return Result{State: StateRejected, RejectReason: RejectMissingField, MissingFields: missing, Candidate: candidate}, nil
	}

	if !candidate.Start.Valid() || !candidate.End.Valid() || candidate.Start >= candidate.End {
		return Result{State: StateRejected, RejectReason: RejectInvalidInterval, Candidate: candidate}, nil
	}

	verdict := EvaluatePolicy(policy, candidate.Date.Weekday(), candidate.Start, candidate.End, privileged)
	if !verdict.Allowed {
		return Result{State: StateRejected, RejectReason: RejectOutsideWindow, PolicyReason: verdict.Reason, Candidate: candidate}, nil
	}

	overlaps := DetectOverlaps(existingOnDate, candidate)
	if len(overlaps) == 0 {
		return accept(candidate, verdict.Reason, nil), nil
	}

	if confirm == nil {
		return Result{
			State:        StateAwaitingConfirmation,
			PolicyReason: verdict.Reason,
			Overlaps:     overlaps,
			Candidate:    candidate,
		}, nil
	}

	proceed, err := confirm(ctx, overlaps)
	if err != nil {
		return Result{}, err
	}
	if !proceed {
		return Result{
			State:        StateRejected,
			RejectReason: RejectUserCancelledOnConflict,
			PolicyReason: verdict.Reason,
			Overlaps:     overlaps,
			Candidate:    candidate,
		}, nil
	}

	return accept(candidate, verdict.Reason, overlaps), nil
}

// Resume completes a run previously suspended with StateAwaitingConfirmation.
func Resume(pending Result, confirmed bool) (Result, error) {
	if pending.State != StateAwaitingConfirmation {
		return Result{}, fmt.Errorf("booking: cannot resume workflow in state %q", pending.State)
	}
	if !confirmed {
		pending.State = StateRejected
		pending.RejectReason = RejectUserCancelledOnConflict
		return pending, nil
	}
	return accept(pending.Candidate, pending.PolicyReason, pending.Overlaps), nil
}

func accept(candidate Booking, policyReason PolicyReason, overlaps []Overlap) Result {
	accepted := candidate
	return Result{
		State:        StateAccepted,
		PolicyReason: policyReason,
		Overlaps:     overlaps,
		Candidate:    candidate,
		Accepted:     &accepted,
	}
}

func missingFields(candidate Booking) []string {
	var missing []string
	if strings.TrimSpace(candidate.Requester) == "" {
		missing = append(missing, "requester")
	}
	if strings.TrimSpace(candidate.Group) == "" {
		missing = append(missing, "group")
	}
	if strings.TrimSpace(candidate.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(candidate.EventType) == "" {
		missing = append(missing, "event_type")
	}
	if candidate.Date.IsZero() {
		missing = append(missing, "date")
	}
	return missing
}
