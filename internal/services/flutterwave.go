package services

import (
	"bytes"
	"context"
	"crypto/des"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/config"
)

const gatewayUnavailable = "Unable to process card payment at the moment. Please try again."

// CardDetails is the raw card input. It is only ever sent encrypted.
type CardDetails struct {
	Number      string
	Name        string
	CVV         string
	ExpiryMonth string
	ExpiryYear  string
	Pin         string
}

// ChargeRequest starts a card charge for TxRef.
type ChargeRequest struct {
	Card     CardDetails
	Email    string
	FullName string
	Amount   decimal.Decimal
	TxRef    string
}

// ChargeValidation is what the gateway reports once an OTP is accepted.
// Amount is zero when the provider omits it.
type ChargeValidation struct {
	TxRef  string
	Amount decimal.Decimal
}

// FlutterwaveService talks to the Flutterwave card charge API.
type FlutterwaveService struct {
	initiateURL   string
	validateURL   string
	secretKey     string
	encryptionKey string
	currency      string
	client        *http.Client
	log           *logrus.Entry
}

// NewFlutterwaveService creates a FlutterwaveService with a 15s client timeout.
func NewFlutterwaveService(cfg *config.Config, log *logrus.Logger) *FlutterwaveService {
	return &FlutterwaveService{
		initiateURL:   cfg.FlutterwaveInitiateURL,
		validateURL:   cfg.FlutterwaveValidateURL,
		secretKey:     cfg.PaymentSecretKey,
		encryptionKey: cfg.PaymentEncryptionKey,
		currency:      cfg.PaymentCurrency,
		client:        &http.Client{Timeout: 15 * time.Second},
		log:           log.WithField("component", "flutterwave"),
	}
}

type chargeAuthorization struct {
	Mode string `json:"mode"`
	Pin  string `json:"pin"`
}

type chargePayload struct {
	CardNumber    string              `json:"card_number"`
	CVV           string              `json:"cvv"`
	ExpiryMonth   string              `json:"expiry_month"`
	ExpiryYear    string              `json:"expiry_year"`
	CardName      string              `json:"card_holder_name"`
	Currency      string              `json:"currency"`
	Amount        json.Number         `json:"amount"`
	Email         string              `json:"email"`
	FullName      string              `json:"fullname"`
	TxRef         string              `json:"tx_ref"`
	Authorization chargeAuthorization `json:"authorization"`
}

// InitiateCharge encrypts the card payload and starts a charge. It returns the
// gateway reference the OTP must later be validated against.
func (s *FlutterwaveService) InitiateCharge(ctx context.Context, req ChargeRequest) (string, error) {
	payload := chargePayload{
		CardNumber:    req.Card.Number,
		CVV:           req.Card.CVV,
		ExpiryMonth:   req.Card.ExpiryMonth,
		ExpiryYear:    req.Card.ExpiryYear,
		CardName:      req.Card.Name,
		Currency:      s.currency,
		Amount:        json.Number(req.Amount.StringFixed(2)),
		Email:         req.Email,
		FullName:      req.FullName,
		TxRef:         req.TxRef,
		Authorization: chargeAuthorization{Mode: "pin", Pin: req.Card.Pin},
	}

	plain, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal charge payload: %w", err)
	}

	client, err := encryptTripleDES(s.encryptionKey, plain)
	if err != nil {
		return "", apperr.Gateway(gatewayUnavailable, err)
	}

	body, err := s.post(ctx, s.initiateURL, map[string]string{"client": client})
	if err != nil {
		return "", err
	}

	reference := gjson.GetBytes(body, "data.flw_ref").String()
	if reference == "" {
		return "", apperr.Gateway(gatewayUnavailable, errors.New("charge response carries no flw_ref"))
	}

	s.log.WithField("tx_ref", req.TxRef).Info("card charge initiated")
	return reference, nil
}

// ValidateCharge submits the OTP for a pending charge.
func (s *FlutterwaveService) ValidateCharge(ctx context.Context, otp, reference string) (*ChargeValidation, error) {
	body, err := s.post(ctx, s.validateURL, map[string]string{
		"otp":     otp,
		"flw_ref": reference,
		"type":    "card",
	})
	if err != nil {
		return nil, err
	}

	txRef := gjson.GetBytes(body, "data.tx_ref").String()
	if txRef == "" {
		return nil, apperr.Gateway(gatewayUnavailable, errors.New("validate response carries no tx_ref"))
	}

	amount, err := decimal.NewFromString(gjson.GetBytes(body, "data.amount").String())
	if err != nil {
		amount = decimal.Zero
	}

	return &ChargeValidation{TxRef: txRef, Amount: amount}, nil
}

// post sends body and returns the raw response. A provider reported error
// surfaces its own message; transport failures get a generic one.
func (s *FlutterwaveService) post(ctx context.Context, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.WithError(err).Warn("gateway request failed")
		return nil, apperr.Gateway(gatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Gateway(gatewayUnavailable, err)
	}

	if gjson.GetBytes(body, "status").String() == "error" {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = gatewayUnavailable
		}
		return nil, apperr.Gateway(msg, fmt.Errorf("gateway status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.Gateway(gatewayUnavailable, fmt.Errorf("gateway status %d: %s", resp.StatusCode, string(body)))
	}

	return body, nil
}

// encryptTripleDES is 3DES in ECB mode with PKCS#7 padding, base64 encoded,
// which is the scheme the gateway expects for the "client" field.
func encryptTripleDES(key string, plain []byte) (string, error) {
	block, err := des.NewTripleDESCipher([]byte(key))
	if err != nil {
		return "", fmt.Errorf("payment encryption key: %w", err)
	}

	size := block.BlockSize()
	padded := pkcs7Pad(plain, size)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += size {
		block.Encrypt(out[i:i+size], padded[i:i+size])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

func pkcs7Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}
