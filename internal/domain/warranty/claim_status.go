package warranty

import "fmt"

// ClaimStatus is the state of a warranty claim.
type ClaimStatus string

const (
	ClaimPending    ClaimStatus = "pending"
	ClaimAssigned   ClaimStatus = "assigned"
	ClaimInProgress ClaimStatus = "in_progress"
	ClaimResolved   ClaimStatus = "resolved"
	ClaimRejected   ClaimStatus = "rejected"
)

// AllStatuses lists every claim status.
var AllStatuses = []ClaimStatus{ClaimPending, ClaimAssigned, ClaimInProgress, ClaimResolved, ClaimRejected}

func (s ClaimStatus) IsValid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true for resolved and rejected claims.
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimResolved || s == ClaimRejected
}

func (s ClaimStatus) String() string { return string(s) }

// ParseClaimStatus converts a string to a ClaimStatus.
func ParseClaimStatus(s string) (ClaimStatus, error) {
	status := ClaimStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid claim status: %s", s)
	}
	return status, nil
}
