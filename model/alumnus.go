package model

import "time"

type Alumnus struct {
	DTO
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	Password       string `gorm:"not null" json:"-"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	FullName       string `json:"fullName"`
	ServiceNumber  string `gorm:"index" json:"serviceNumber"`
	Squadron       string `json:"squadron"`
	GraduationYear int    `json:"graduationYear"`
	Chapter        string `json:"chapter"`
	Phone          string `json:"phone"`
	ProfilePhoto   string `json:"profilePhoto"`
	Active         bool   `gorm:"default:true" json:"active"`
}

type RegisterAlumnusInput struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	ServiceNumber  string `json:"serviceNumber" validate:"omitempty"`
	Squadron       string `json:"squadron" validate:"omitempty"`
	GraduationYear int    `json:"graduationYear" validate:"omitempty,gte=1980,lte=2100"`
	Chapter        string `json:"chapter" validate:"omitempty"`
	Phone          string `json:"phone" validate:"omitempty"`
}

type UpdateProfileInput struct {
	FirstName      string `json:"firstName" validate:"omitempty"`
	LastName       string `json:"lastName" validate:"omitempty"`
	Squadron       string `json:"squadron" validate:"omitempty"`
	GraduationYear int    `json:"graduationYear" validate:"omitempty,gte=1980,lte=2100"`
	Chapter        string `json:"chapter" validate:"omitempty"`
	Phone          string `json:"phone" validate:"omitempty"`
	ProfilePhoto   string `json:"profilePhoto" validate:"omitempty,url"`
}

type FilterAlumniInput struct {
	Pagination
	Search   string `json:"search"`
	Squadron string `json:"squadron"`
	Chapter  string `json:"chapter"`
}

type PasswordResetToken struct {
	DTO
	AlumnusId uint      `gorm:"not null;index" json:"alumnusId"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `gorm:"default:false" json:"used"`
}
