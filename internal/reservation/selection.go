package reservation

import (
	"eventify/internal/logger"
	"eventify/internal/models"
)

// SelectSeat adds the seat to the selection and marks it selected on the
// seat map. The seat must exist on the loaded map with status available and
// must not be selected yet; otherwise the call is a no-op that returns false
// and reports a Rejection.
func (s *Session) SelectSeat(seatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	if s.seatMap == nil {
		return s.rejectLocked("select", seatID, ReasonNoSeatMap)
	}
	seat, ok := s.seatMap.FindSeat(seatID)
	if !ok {
		return s.rejectLocked("select", seatID, ReasonUnknownSeat)
	}
	if s.selectedIndex(seatID) >= 0 {
		return s.rejectLocked("select", seatID, ReasonAlreadySelected)
	}
	if seat.Status != models.SeatAvailable {
		return s.rejectLocked("select", seatID, ReasonNotAvailable)
	}

	seat.Status = models.SeatSelected
	s.selection = append(s.selection, seat)
	s.seatMap.SetStatus(seatID, models.SeatSelected)
	s.version++
	return true
}

// DeselectSeat removes the seat from the selection and makes it available
// again. Deselecting a seat that is not selected is a no-op.
func (s *Session) DeselectSeat(seatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	i := s.selectedIndex(seatID)
	if i < 0 {
		return s.rejectLocked("deselect", seatID, ReasonNotSelected)
	}

	s.selection = append(s.selection[:i:i], s.selection[i+1:]...)
	s.seatMap.SetStatus(seatID, models.SeatAvailable)
	s.version++
	return true
}

// ClearSelection makes every selected seat available again and empties the
// selection in a single update. It does nothing when nothing is selected.
func (s *Session) ClearSelection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	if len(s.selection) == 0 {
		return false
	}
	for _, seat := range s.selection {
		s.seatMap.SetStatus(seat.ID, models.SeatAvailable)
	}
	s.selection = nil
	s.version++
	return true
}

func (s *Session) selectedIndex(seatID string) int {
	for i, seat := range s.selection {
		if seat.ID == seatID {
			return i
		}
	}
	return -1
}

func (s *Session) rejectLocked(op, seatID string, reason Reason) bool {
	s.rejections++
	r := Rejection{SessionID: s.id, Op: op, SeatID: seatID, Reason: reason}
	s.lastReject = &r
	s.observer.SeatRejected(r)
	logger.WithSessionID(s.id).Debug("Seat operation ignored", "op", op, "seat_id", seatID, "reason", string(reason))
	return false
}
