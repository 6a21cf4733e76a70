package model

import "time"

type WaitlistEntry struct {
	DTO
	EventId        uint       `gorm:"not null;uniqueIndex:idx_wl_event_position,priority:1" json:"eventId"`
	Position       int        `gorm:"not null;uniqueIndex:idx_wl_event_position,priority:2" json:"position"`
	AlumnusId      uint       `gorm:"not null" json:"alumnusId"`
	RegistrationId uint       `gorm:"not null" json:"registrationId"`
	TicketType     string     `gorm:"default:REGULAR" json:"ticketType"`
	Status         string     `gorm:"default:WAITING" json:"status"` // WAITING, NOTIFIED, CONVERTED, EXPIRED
	NotifiedAt     *time.Time `json:"notifiedAt,omitempty"`
	OfferExpiresAt *time.Time `json:"offerExpiresAt,omitempty"`

	Alumnus      Alumnus      `gorm:"foreignKey:AlumnusId" json:"-"`
	Event        Event        `gorm:"foreignKey:EventId" json:"-"`
	Registration Registration `gorm:"foreignKey:RegistrationId" json:"-"`
}
