package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/homefix/service-lifecycle/internal/common/domain"
)

// Slot is the requested date and time window. It is copied at creation and never changes.
type Slot struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// Address is the delivery address snapshot taken at creation.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      string  `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
}

// PaymentMethod is informational only; no money moves through this service.
type PaymentMethod string

const (
	PaymentCash            PaymentMethod = "cash"
	PaymentCard            PaymentMethod = "card"
	PaymentPayOnCompletion PaymentMethod = "pay_on_completion"
)

// IsValid returns true if the payment method is recognized.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentPayOnCompletion:
		return true
	}
	return false
}

func (s Slot) validate() error {
	if s.Date.IsZero() {
		return domain.NewValidationError("slot date is required")
	}
	if s.StartTime == "" {
		return domain.NewValidationError("slot start time is required")
	}
	if s.EndTime != "" && s.EndTime <= s.StartTime {
		return domain.NewValidationError(fmt.Sprintf("slot window %s-%s is empty", s.StartTime, s.EndTime))
	}
	return nil
}

func (a Address) validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return domain.NewValidationError("address line1 is required")
	}
	if strings.TrimSpace(a.City) == "" {
		return domain.NewValidationError("address city is required")
	}
	return nil
}
