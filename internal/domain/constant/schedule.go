package constant

// ScheduleOutcome reports what a scheduling request did.
type ScheduleOutcome int

const (
	// OutcomeScheduled means a new timer was created.
	OutcomeScheduled ScheduleOutcome = iota
	// OutcomeAlreadyScheduled means a job for the todo already exists; nothing changed.
	OutcomeAlreadyScheduled
	// OutcomePast means the due time is not in the future; no retroactive reminder.
	OutcomePast
	// OutcomeOutOfWindow means the due time is beyond the lookahead window; hydration will pick it up later.
	OutcomeOutOfWindow
)

func (o ScheduleOutcome) String() string {
	switch o {
	case OutcomeScheduled:
		return "scheduled"
	case OutcomeAlreadyScheduled:
		return "already_scheduled"
	case OutcomePast:
		return "past"
	case OutcomeOutOfWindow:
		return "out_of_window"
	default:
		return "unknown"
	}
}
