package entities

// SlotKey identifies a bookable (date, time) unit.
type SlotKey struct {
	Date string
	Time string
}

// BookedSet holds the slots already taken by non-cancelled appointments.
type BookedSet map[SlotKey]struct{}

// NewBookedSet builds a set from the given keys.
func NewBookedSet(keys ...SlotKey) BookedSet {
	set := make(BookedSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether the slot is booked.
func (s BookedSet) Has(k SlotKey) bool {
	_, ok := s[k]
	return ok
}

// AvailableSlot is an open slot computed for a single request.
type AvailableSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
	Day  string `json:"day"`
}

type SlotsResponse struct {
	Slots []AvailableSlot `json:"slots"`
}
