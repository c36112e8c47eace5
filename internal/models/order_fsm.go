package models

import "errors"

// OrderEvent is a staff/customer intent applied to an order's status.
type OrderEvent string

const (
	EventStartPreparing OrderEvent = "start_preparing"
	EventMarkReady      OrderEvent = "mark_ready"
	EventComplete       OrderEvent = "complete"
	EventCancel         OrderEvent = "cancel"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownEvent      = errors.New("unknown order event")
)

// NextStatus resolves the status an order moves to when event is applied.
// The path is pending -> preparing -> ready -> completed, with cancel
// reachable from any non-terminal status. Events applied to a terminal
// status return ErrInvalidTransition; callers decide whether that is an
// error or a benign race (a stale view racing a just-completed order).
func NextStatus(current OrderStatus, event OrderEvent) (OrderStatus, error) {
	if current == OrderCompleted || current == OrderCancelled {
		return current, ErrInvalidTransition
	}

	switch event {
	case EventStartPreparing:
		if current != OrderPending {
			return current, ErrInvalidTransition
		}
		return OrderPreparing, nil
	case EventMarkReady:
		if current != OrderPreparing {
			return current, ErrInvalidTransition
		}
		return OrderReady, nil
	case EventComplete:
		if current != OrderReady {
			return current, ErrInvalidTransition
		}
		return OrderCompleted, nil
	case EventCancel:
		return OrderCancelled, nil
	default:
		return current, ErrUnknownEvent
	}
}
