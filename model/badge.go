package model

import "time"

type Badge struct {
	DTO
	BadgeCode      string     `gorm:"uniqueIndex;size:24" json:"badgeCode"`
	RegistrationId uint       `gorm:"uniqueIndex;not null" json:"registrationId"`
	EventId        uint       `gorm:"not null;index" json:"eventId"`
	AlumnusId      uint       `gorm:"not null" json:"alumnusId"`
	QRPayload      string     `gorm:"type:text" json:"-"`
	CheckedIn      bool       `gorm:"default:false" json:"checkedIn"`
	FirstScanAt    *time.Time `json:"firstScanAt,omitempty"`
	LastScanAt     *time.Time `json:"lastScanAt,omitempty"`
	ScanCount      int        `gorm:"default:0" json:"scanCount"`

	Registration Registration `gorm:"foreignKey:RegistrationId" json:"-"`
	Event        Event        `gorm:"foreignKey:EventId" json:"-"`
	Alumnus      Alumnus      `gorm:"foreignKey:AlumnusId" json:"-"`
}

type BadgeScan struct {
	DTO
	BadgeId      uint      `gorm:"not null;index" json:"badgeId"`
	EventId      uint      `gorm:"not null;index" json:"eventId"`
	ScanType     string    `gorm:"not null" json:"scanType"` // checkin, checkout
	ScanLocation string    `gorm:"not null" json:"scanLocation"`
	ScannedBy    uint      `json:"scannedBy"`
	ScannedAt    time.Time `gorm:"not null;index" json:"scannedAt"`
	Notes        string    `json:"notes"`
}

type ScanInput struct {
	QRData       string `json:"qrData" validate:"required"`
	ScanType     string `json:"scanType" validate:"omitempty,oneof=checkin checkout"`
	ScanLocation string `json:"scanLocation" validate:"omitempty,max=80"`
	Notes        string `json:"notes" validate:"omitempty,max=500"`
}
