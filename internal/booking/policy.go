package booking

import "time"

// Window is a permitted half-open [Start,End) sub-interval of a day.
type Window struct {
	Start MinuteOfDay
	End   MinuteOfDay
}

// Contains reports whether [start,end) lies fully inside the window. A
// candidate must both begin and finish inside a single window; straddling the
// gap between two windows never satisfies a policy.
func (w Window) Contains(start, end MinuteOfDay) bool {
	return start >= w.Start && end <= w.End
}

// DayPolicy configures the permitted windows for one day of the week.
// A day with no windows and no override flag accepts nothing.
type DayPolicy struct {
	Windows       []Window
	AllowOverride bool
}

// WeeklyPolicy maps each day of the week (indexed by time.Weekday, Sunday=0)
// to its permitted windows. Windows within a day must be pairwise disjoint;
// that invariant is owned by whoever builds the policy, not by the evaluator.
type WeeklyPolicy [7]DayPolicy

// PolicyReason explains a policy verdict.
type PolicyReason string

const (
	// ReasonNormal indicates the interval fits a configured window.
	ReasonNormal PolicyReason = "normal"
	// ReasonPrivilegedOverride indicates the interval was admitted only
	// because the caller holds the privileged capability.
	ReasonPrivilegedOverride PolicyReason = "privileged_override"
	// ReasonOutsideWindow indicates the interval fits no configured window.
	ReasonOutsideWindow PolicyReason = "outside_window"
	// ReasonInvalidInterval indicates the interval itself is malformed.
	ReasonInvalidInterval PolicyReason = "invalid_interval"
)

// PolicyResult is the verdict produced by EvaluatePolicy.
type PolicyResult struct {
	Allowed bool
	Reason  PolicyReason
}

// EvaluatePolicy decides whether the half-open interval [start,end) may be
// booked on the given day of week. The interval is allowed when it is fully
// contained in one of the day's windows, or when the day permits override and
// the caller is privileged. The evaluator is a pure function; it performs no
// I/O and holds no state.
func EvaluatePolicy(policy WeeklyPolicy, day time.Weekday, start, end MinuteOfDay, privileged bool) PolicyResult {
	if day < time.Sunday || day > time.Saturday {
		return PolicyResult{Allowed: false, Reason: ReasonInvalidInterval}
	}
	if !start.Valid() || !end.Valid() || start >= end {
		return PolicyResult{Allowed: false, Reason: ReasonInvalidInterval}
	}

	dayPolicy := policy[day]
	for _, window := range dayPolicy.Windows {
		if window.Contains(start, end) {
			return PolicyResult{Allowed: true, Reason: ReasonNormal}
		}
	}

	if dayPolicy.AllowOverride && privileged {
		return PolicyResult{Allowed: true, Reason: ReasonPrivilegedOverride}
	}

	return PolicyResult{Allowed: false, Reason: ReasonOutsideWindow}
}
