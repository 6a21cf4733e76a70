package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	DTO
	Title       string          `gorm:"not null" json:"title"`
	Slug        string          `gorm:"uniqueIndex;size:120" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Venue       string          `json:"venue"`
	Address     string          `json:"address"`
	StartDate   time.Time       `gorm:"not null" json:"startDate"`
	EndDate     time.Time       `gorm:"not null" json:"endDate"`
	Capacity    int             `gorm:"not null" json:"capacity"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Status      string          `gorm:"default:DRAFT" json:"status"` // DRAFT, PUBLISHED, CANCELLED, COMPLETED
	ImageUrl    string          `json:"imageUrl"`
	CreatedBy   uint            `json:"createdBy"`
}

// IsFree reports whether no payment is required to confirm a seat.
func (e *Event) IsFree() bool {
	return e.Price.IsZero()
}

type CreateEventInput struct {
	Title       string          `json:"title" validate:"required,min=3"`
	Description string          `json:"description" validate:"omitempty"`
	Venue       string          `json:"venue" validate:"required"`
	Address     string          `json:"address" validate:"omitempty"`
	StartDate   time.Time       `json:"startDate" validate:"required"`
	EndDate     time.Time       `json:"endDate" validate:"required,gtfield=StartDate"`
	Capacity    int             `json:"capacity" validate:"required,gte=0"`
	Price       decimal.Decimal `json:"price"`
	ImageUrl    string          `json:"imageUrl" validate:"omitempty,url"`
}

type EditEventInput struct {
	Title       string           `json:"title" validate:"omitempty,min=3"`
	Description string           `json:"description" validate:"omitempty"`
	Venue       string           `json:"venue" validate:"omitempty"`
	Address     string           `json:"address" validate:"omitempty"`
	StartDate   *time.Time       `json:"startDate" validate:"omitempty"`
	EndDate     *time.Time       `json:"endDate" validate:"omitempty"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty"`
	ImageUrl    string           `json:"imageUrl" validate:"omitempty,url"`
}

type RaiseCapacityInput struct {
	Capacity int `json:"capacity" validate:"required,gt=0"`
}

type FilterEventInput struct {
	Pagination
	Status string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED CANCELLED COMPLETED"`
	Search string `json:"search"`
}
