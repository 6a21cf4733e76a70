package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	DTO
	RegistrationId uint             `gorm:"not null" json:"registrationId"`
	AlumnusId      uint             `gorm:"not null" json:"alumnusId"`
	Amount         decimal.Decimal  `gorm:"type:numeric(12,2)" json:"amount"`
	GatewayAmount  *decimal.Decimal `gorm:"type:numeric(12,2)" json:"gatewayAmount,omitempty"`
	Currency       string           `gorm:"default:NGN" json:"currency"`
	Provider       string           `gorm:"default:paystack" json:"provider"`
	Reference      string           `gorm:"uniqueIndex;not null" json:"reference"`
	Status         string           `gorm:"default:PENDING" json:"status"` // PENDING, SUCCESS, FAILED, REVIEW
	Channel        string           `json:"channel"`
	PaidAt         *time.Time       `json:"paidAt,omitempty"`

	Registration Registration `gorm:"foreignKey:RegistrationId" json:"-"`
}

type CreatePaymentInput struct {
	RegistrationCode string `json:"registrationCode" validate:"required"`
}

// PaystackWebhook is the webhook envelope posted by the gateway.
// Amounts arrive in kobo (subunits).
type PaystackWebhook struct {
	Event string              `json:"event"`
	Data  PaystackWebhookData `json:"data"`
}

type PaystackWebhookData struct {
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
	GatewayResponse string `json:"gateway_response"`
	Channel         string `json:"channel"`
	Currency        string `json:"currency"`
	PaidAt          string `json:"paid_at"`
}

type FilterPaymentInput struct {
	Pagination
	Status  string `json:"status" validate:"omitempty,oneof=PENDING SUCCESS FAILED REVIEW"`
	EventId uint   `json:"eventId" validate:"omitempty,gt=0"`
}
