// Package notify carries notification events emitted after a database
// transaction commits. Delivery is fire-and-forget: a failed or dropped
// notification never rolls back the state transition that produced it.
package notify

// Event types.
const (
	TypeRegistrationConfirmed = "registration.confirmed"
	TypeWaitlistPlaced        = "waitlist.placed"
	TypeWaitlistPromoted      = "waitlist.promoted"
)

// Event is the message published to the notification queue.
type Event struct {
	Type        string `json:"type"`
	To          string `json:"to"`
	Name        string `json:"name"`
	EventTitle  string `json:"eventTitle"`
	EventDate   string `json:"eventDate"`
	Venue       string `json:"venue"`
	TicketType  string `json:"ticketType"`
	PublicCode  string `json:"publicCode"`
	Position    int    `json:"position,omitempty"`
	OfferExpiry string `json:"offerExpiry,omitempty"`
	QRPNG       []byte `json:"qrPng,omitempty"`
}
