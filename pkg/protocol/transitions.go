package protocol

import "errors"

// Action names a lifecycle transition.
type Action string

const (
	ActionPending Action = "pending"
	ActionUnpend  Action = "unpend"
	ActionClose   Action = "close"
	ActionReopen  Action = "reopen"
)

var (
	ErrAlreadyOpen       = errors.New("ticket is already open")
	ErrInvalidTransition = errors.New("invalid ticket transition")
	ErrUnknownAction     = errors.New("unknown ticket action")
)

type transition struct {
	from []TicketStatus
	to   TicketStatus
}

var transitionMap = map[Action]transition{
	ActionPending: {from: []TicketStatus{TicketOpen}, to: TicketPending},
	ActionUnpend:  {from: []TicketStatus{TicketPending}, to: TicketOpen},
	ActionClose:   {from: []TicketStatus{TicketOpen, TicketPending}, to: TicketClosed},
	ActionReopen:  {from: []TicketStatus{TicketClosed}, to: TicketOpen},
}

// ValidTransition reports whether action may be applied to a ticket in status from.
func ValidTransition(action Action, from TicketStatus) bool {
	tr, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, s := range tr.from {
		if s == from {
			return true
		}
	}
	return false
}

// Apply performs action on the ticket. The ticket is left untouched on error.
func (t *Ticket) Apply(action Action) error {
	tr, ok := transitionMap[action]
	if !ok {
		return ErrUnknownAction
	}
	if !ValidTransition(action, t.Status) {
		if action == ActionReopen {
			return ErrAlreadyOpen
		}
		return ErrInvalidTransition
	}
	if action == ActionClose {
		t.Close()
		return nil
	}
	t.SetStatus(tr.to)
	return nil
}
