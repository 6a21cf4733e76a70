package utils

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"image/png"
	"strings"

	"alumni_events/config"

	"github.com/skip2/go-qrcode"
)

// BadgePayload is what a badge QR token encodes. The token is opaque to
// scanners; only this service can mint or verify one.
type BadgePayload struct {
	BadgeId        uint   `json:"badgeId"`
	EventId        uint   `json:"eventId"`
	AlumnusId      uint   `json:"alumnusId"`
	RegistrationId uint   `json:"registrationId"`
	IssuedAt       int64  `json:"issuedAt"`
	BadgeCode      string `json:"badgeCode"`
}

var (
	ErrBadTokenFormat = errors.New("badge token format invalid")
	ErrBadSignature   = errors.New("badge token signature mismatch")
)

func qrSecret() []byte {
	return []byte(config.Config("QR_SECRET"))
}

// SignBadgeToken serializes the payload and appends an HMAC-SHA256 tag:
// base64(json) + "." + hex(hmac).
func SignBadgeToken(p BadgePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	mac := hmac.New(sha256.New, qrSecret())
	mac.Write([]byte(body))
	return body + "." + hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyBadgeToken checks the signature before parsing anything out of the
// token. Malformed or tampered tokens never reach the database.
func VerifyBadgeToken(token string) (*BadgePayload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil, ErrBadTokenFormat
	}

	mac := hmac.New(sha256.New, qrSecret())
	mac.Write([]byte(parts[0]))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return nil, ErrBadSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrBadTokenFormat
	}
	var payload BadgePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrBadTokenFormat
	}
	if payload.BadgeId == 0 || payload.EventId == 0 || payload.RegistrationId == 0 {
		return nil, ErrBadTokenFormat
	}
	return &payload, nil
}

// GenerateQRCode renders content as a PNG.
func GenerateQRCode(content string, size int) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	err = png.Encode(buf, qr.Image(size))
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
