package model

import "time"

type Registration struct {
	DTO
	PublicCode      string     `gorm:"uniqueIndex;size:20" json:"publicCode"`
	AlumnusId       uint       `gorm:"not null;index:idx_reg_alumnus_event" json:"alumnusId"`
	EventId         uint       `gorm:"not null;index:idx_reg_alumnus_event" json:"eventId"`
	TicketType      string     `gorm:"default:REGULAR" json:"ticketType"`
	Status          string     `gorm:"default:PENDING" json:"status"` // PENDING, CONFIRMED, WAITLISTED, CANCELLED
	SpecialRequests string     `json:"specialRequests"`
	ConfirmedAt     *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`

	Alumnus Alumnus `gorm:"foreignKey:AlumnusId" json:"-"`
	Event   Event   `gorm:"foreignKey:EventId" json:"-"`
}

// HoldsSeat reports whether this registration counts against event capacity.
func (r *Registration) HoldsSeat() bool {
	return r.Status == "CONFIRMED" || r.Status == "PENDING"
}

type CreateRegistrationInput struct {
	EventId         uint   `json:"eventId" validate:"required,gt=0"`
	TicketType      string `json:"ticketType" validate:"required"`
	SpecialRequests string `json:"specialRequests" validate:"omitempty,max=500"`
}

type FilterRegistrationInput struct {
	Pagination
	EventId uint   `json:"eventId" validate:"omitempty,gt=0"`
	Status  string `json:"status" validate:"omitempty,oneof=PENDING CONFIRMED WAITLISTED CANCELLED"`
}
