package reservation

// Reason explains why a selection operation was ignored.
type Reason string

const (
	ReasonNotAvailable    Reason = "not_available"
	ReasonAlreadySelected Reason = "already_selected"
	ReasonNotSelected     Reason = "not_selected"
	ReasonUnknownSeat     Reason = "unknown_seat"
	ReasonNoSeatMap       Reason = "no_seat_map"
)

// Rejection describes a selection operation that was a no-op.
type Rejection struct {
	SessionID string
	Op        string
	SeatID    string
	Reason    Reason
}

// OpKind identifies a class of asynchronous session operations. Results are
// only applied when they belong to the latest request of their kind.
type OpKind int

const (
	OpSeatMap OpKind = iota
	OpBooking
	OpHistory
	opKinds
)

func (k OpKind) String() string {
	switch k {
	case OpSeatMap:
		return "seat_map"
	case OpBooking:
		return "booking"
	case OpHistory:
		return "history"
	}
	return "unknown"
}

// Observer receives diagnostics from a session. Calls happen while the
// session lock is held, so implementations must not call back into it.
type Observer interface {
	SeatRejected(r Rejection)
	ResultDiscarded(sessionID string, op OpKind)
}

type nopObserver struct{}

func (nopObserver) SeatRejected(Rejection)         {}
func (nopObserver) ResultDiscarded(string, OpKind) {}
