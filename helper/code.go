package helper

import (
	"strings"

	"alumni_events/config"

	"github.com/google/uuid"
)

// AppURL is the public frontend base URL used in emails and links.
func AppURL() string {
	url := config.Config("APP_URL")
	if url == "" {
		url = "http://localhost:3000"
	}
	return strings.TrimRight(url, "/")
}

// NewPublicCode builds a short public identifier like REG-1A2B3C4D.
func NewPublicCode(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.New().String()[:8])
}

// NewPaymentReference builds the unique gateway reference for a payment.
func NewPaymentReference() string {
	return "AEV-" + strings.ToUpper(uuid.New().String()[:12])
}
