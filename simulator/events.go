package simulator

import (
	"encoding/json"
	"fmt"
)

// EventKind classifies timeline events
type EventKind int

const (
	EventPageHit       EventKind = iota // Requested page resident
	EventPageFault                      // Requested page absent
	EventPageEvict                      // Victim displaced on fault
	EventLockAcquire                    // Permit granted
	EventLockRelease                    // Permit returned
	EventBlocked                        // Thread enqueued on a lock
	EventContextSwitch                  // Reserved: switches are counted, not timeline-logged
)

// String returns the string representation of EventKind
func (ek EventKind) String() string {
	switch ek {
	case EventPageHit:
		return "PAGE_HIT"
	case EventPageFault:
		return "PAGE_FAULT"
	case EventPageEvict:
		return "PAGE_EVICT"
	case EventLockAcquire:
		return "LOCK_ACQUIRE"
	case EventLockRelease:
		return "LOCK_RELEASE"
	case EventBlocked:
		return "BLOCKED"
	case EventContextSwitch:
		return "CONTEXT_SWITCH"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for EventKind
func (ek EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(ek.String())
}

// TimelineEvent is one entry of the append-only audit log. Events are never
// mutated after creation.
type TimelineEvent struct {
	Step    int       `json:"step"`
	Thread  string    `json:"thread"`
	Kind    EventKind `json:"kind"`
	Details string    `json:"details"`
}

func (e TimelineEvent) String() string {
	return fmt.Sprintf("[step %d] %s %s: %s", e.Step, e.Thread, e.Kind, e.Details)
}
