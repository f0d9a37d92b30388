package errors

import "errors"

var ErrMapUnavailable = errors.New("seat map is unavailable")
var ErrEmptySelection = errors.New("no seats selected")
var ErrTransientFailure = errors.New("temporary failure")
var ErrUnknownCategory = errors.New("seat category is unknown")
var ErrInvalidSeatMap = errors.New("seat map is invalid")
var ErrInvalidStep = errors.New("invalid booking step")
var ErrSeatsHeld = errors.New("seats are held by another session")
var ErrSessionNotFound = errors.New("session not found")
var ErrBookingNotFound = errors.New("booking not found")
var ErrEventNotFound = errors.New("event not found")
var ErrInvalidBookingState = errors.New("booking cannot change state")
var ErrSuperseded = errors.New("request superseded by a newer one")

// Message converts an error into the text stored on a session and returned to
// clients. Unknown errors collapse into a generic message.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMapUnavailable):
		return "The seat map for this event is not available."
	case errors.Is(err, ErrEmptySelection):
		return "Select at least one seat before booking."
	case errors.Is(err, ErrUnknownCategory):
		return "A selected seat has no price category."
	case errors.Is(err, ErrInvalidSeatMap):
		return "The seat map received for this event is invalid."
	case errors.Is(err, ErrInvalidStep):
		return "Unknown booking step."
	case errors.Is(err, ErrSeatsHeld):
		return "Some of the selected seats are being booked by someone else."
	case errors.Is(err, ErrSessionNotFound):
		return "Booking session not found."
	case errors.Is(err, ErrBookingNotFound):
		return "Booking not found."
	case errors.Is(err, ErrEventNotFound):
		return "Event not found."
	case errors.Is(err, ErrInvalidBookingState):
		return "The booking cannot be changed in its current state."
	case errors.Is(err, ErrSuperseded):
		return "A newer request replaced this one."
	case errors.Is(err, ErrTransientFailure):
		return "The service is temporarily unavailable. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
