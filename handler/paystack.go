package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"alumni_events/config"

	"github.com/shopspring/decimal"
)

// Paystack wraps the payment gateway REST API. Amounts on the wire are in
// kobo (hundredths of a naira).
type Paystack struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Client      *http.Client
}

func NewPaystack() *Paystack {
	baseURL := config.Config("PAYSTACK_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Paystack{
		SecretKey:   config.Config("PAYSTACK_SECRET_KEY"),
		BaseURL:     baseURL,
		CallbackURL: config.Config("PAYSTACK_CALLBACK_URL"),
		Client:      &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializeTransaction opens a checkout session and returns the hosted
// payment page URL.
func (p *Paystack) InitializeTransaction(email string, amount decimal.Decimal, reference string) (string, error) {
	payload := map[string]interface{}{
		"email":     email,
		"amount":    amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"reference": reference,
		"currency":  "NGN",
	}
	if p.CallbackURL != "" {
		payload["callback_url"] = p.CallbackURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, p.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed paystackInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if !parsed.Status {
		return "", fmt.Errorf("paystack initialize failed: %s", parsed.Message)
	}
	return parsed.Data.AuthorizationURL, nil
}

// VerifySignature checks the x-paystack-signature header: HMAC-SHA512 of
// the raw request body with the secret key.
func (p *Paystack) VerifySignature(signature string, body []byte) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
