package reservation

type Status string

const (
	StatusConfirmed         Status = "confirmed"
	StatusVerified          Status = "verified"
	StatusCheckedIn         Status = "checked_in"
	StatusCheckoutRequested Status = "checkout_requested"
	StatusCheckoutVerified  Status = "checkout_verified"
	StatusCheckedOut        Status = "checked_out"
	StatusCancelled         Status = "cancelled"
	StatusExpired           Status = "expired"
)

// legalTransitions is the full lifecycle graph. Direct self-service paths
// skip the gate steps, which is why confirmed can move straight to
// checked_in and checked_in straight to checked_out.
var legalTransitions = map[Status][]Status{
	StatusConfirmed:         {StatusVerified, StatusCheckedIn, StatusCancelled, StatusExpired},
	StatusVerified:          {StatusCheckedIn},
	StatusCheckedIn:         {StatusCheckoutRequested, StatusCheckoutVerified, StatusCheckedOut},
	StatusCheckoutRequested: {StatusCheckoutVerified, StatusCheckedOut},
	StatusCheckoutVerified:  {StatusCheckedOut},
	StatusCheckedOut:        {},
	StatusCancelled:         {},
	StatusExpired:           {},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	_, ok := legalTransitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCheckedOut, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsOccupying reports whether a reservation in this status is physically
// holding its slot.
func (s Status) IsOccupying() bool {
	switch s {
	case StatusCheckedIn, StatusCheckoutRequested, StatusCheckoutVerified:
		return true
	default:
		return false
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
