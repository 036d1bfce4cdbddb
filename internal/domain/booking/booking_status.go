package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending           BookingStatus = "pending"
	StatusAccepted          BookingStatus = "accepted"
	StatusRejected          BookingStatus = "rejected"
	StatusCancelled         BookingStatus = "cancelled"
	StatusInProgress        BookingStatus = "in_progress"
	StatusCompleted         BookingStatus = "completed"
	StatusWarrantyRequested BookingStatus = "warranty_requested"
	StatusWarrantyClaimed   BookingStatus = "warranty_claimed"
)

// AllStatuses lists every booking status.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusAccepted,
	StatusRejected,
	StatusCancelled,
	StatusInProgress,
	StatusCompleted,
	StatusWarrantyRequested,
	StatusWarrantyClaimed,
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no booking event can leave this status.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// HasCompleted reports whether the booking has reached completion. Warranty
// follow-up states keep the completion facts (expiry, final price).
func (s BookingStatus) HasCompleted() bool {
	return s == StatusCompleted || s == StatusWarrantyRequested || s == StatusWarrantyClaimed
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
