package entities

// Sentinels written when extraction could not fill a field.
const (
	NotProvided        = "Not provided"
	NotSpecified       = "Not specified"
	DefaultService     = "General consultation"
	DefaultBookingTime = "10:00"
	DateLayout         = "2006-01-02"
	TimeLayout         = "15:04"
)

// AppointmentRequest is the structured result of reading a chat message.
// It only lives for the duration of one request.
type AppointmentRequest struct {
	IsBooking bool   `json:"appointment"`
	OwnerName string `json:"name"`
	PetName   string `json:"pet_name"`
	Phone     string `json:"phone"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Service   string `json:"service"`
	Notes     string `json:"notes"`
}

// WithDefaults fills every empty optional field with its sentinel.
func (r AppointmentRequest) WithDefaults() AppointmentRequest {
	if r.OwnerName == "" {
		r.OwnerName = NotProvided
	}
	if r.PetName == "" {
		r.PetName = NotProvided
	}
	if r.Phone == "" {
		r.Phone = NotProvided
	}
	if r.Date == "" {
		r.Date = NotSpecified
	}
	if r.Time == "" {
		r.Time = NotSpecified
	}
	if r.Service == "" {
		r.Service = DefaultService
	}
	return r
}
