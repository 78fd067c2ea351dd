package services

import (
	"context"
	"crypto/des"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/logging"
	"github.com/example/marketplace/internal/models"
)

const testEncryptionKey = "0123456789abcdefghijklmn"

func decryptTripleDES(t *testing.T, key, encoded string) []byte {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	block, err := des.NewTripleDESCipher([]byte(key))
	require.NoError(t, err)

	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += block.BlockSize() {
		block.Decrypt(out[i:i+block.BlockSize()], raw[i:i+block.BlockSize()])
	}
	pad := int(out[len(out)-1])
	return out[:len(out)-pad]
}

func TestEncryptTripleDESPadsToBlock(t *testing.T) {
	for _, plain := range []string{"", "1234567", "12345678", `{"card_number":"5531886652142950"}`} {
		encoded, err := encryptTripleDES(testEncryptionKey, []byte(plain))
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		assert.Zero(t, len(raw)%8)
		assert.Equal(t, plain, string(decryptTripleDES(t, testEncryptionKey, encoded)))
	}

	_, err := encryptTripleDES("short", []byte("x"))
	assert.Error(t, err)
}

func newFlutterwave(initiateURL, validateURL string) *FlutterwaveService {
	return NewFlutterwaveService(&config.Config{
		FlutterwaveInitiateURL: initiateURL,
		FlutterwaveValidateURL: validateURL,
		PaymentSecretKey:       "FLWSECK-test",
		PaymentEncryptionKey:   testEncryptionKey,
		PaymentCurrency:        "NGN",
	}, logging.Discard())
}

func TestInitiateChargeSendsEncryptedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer FLWSECK-test", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		var payload map[string]any
		require.NoError(t, json.Unmarshal(decryptTripleDES(t, testEncryptionKey, body["client"]), &payload))
		assert.Equal(t, "tx-1", payload["tx_ref"])
		assert.Equal(t, "NGN", payload["currency"])
		assert.Equal(t, 25.5, payload["amount"])
		assert.Equal(t, "09", payload["expiry_month"])

		w.Write([]byte(`{"status":"success","data":{"flw_ref":"FLW-REF-1"}}`))
	}))
	defer server.Close()

	fw := newFlutterwave(server.URL, server.URL)
	ref, err := fw.InitiateCharge(context.Background(), ChargeRequest{
		Card:   CardDetails{Number: "5531886652142950", CVV: "564", ExpiryMonth: "09", ExpiryYear: "32", Pin: "3310"},
		Email:  "ada@example.com",
		Amount: decimal.RequireFromString("25.50"),
		TxRef:  "tx-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "FLW-REF-1", ref)
}

func TestInitiateChargeProviderErrorPassesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Card declined"}`))
	}))
	defer server.Close()

	_, err := newFlutterwave(server.URL, server.URL).InitiateCharge(context.Background(), ChargeRequest{TxRef: "tx"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindGateway))
	assert.Equal(t, "Card declined", err.Error())
}

func TestInitiateChargeTimeoutIsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	fw := newFlutterwave(server.URL, server.URL)
	fw.client.Timeout = 20 * time.Millisecond

	_, err := fw.InitiateCharge(context.Background(), ChargeRequest{TxRef: "tx"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindGateway))
	assert.Equal(t, gatewayUnavailable, err.Error())
}

func TestValidateChargeReturnsTxRef(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12345", body["otp"])
		assert.Equal(t, "FLW-REF-1", body["flw_ref"])
		assert.Equal(t, "card", body["type"])

		w.Write([]byte(`{"status":"success","data":{"tx_ref":"tx-1","amount":25.5}}`))
	}))
	defer server.Close()

	result, err := newFlutterwave(server.URL, server.URL).ValidateCharge(context.Background(), "12345", "FLW-REF-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", result.TxRef)
	assert.True(t, decimal.RequireFromString("25.5").Equal(result.Amount))
}

func TestEmailServiceSend(t *testing.T) {
	var got emailMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := NewEmailService(&config.Config{
		EmailAPIURL:         server.URL,
		EmailAPIKey:         "key",
		EmailFrom:           "shop@example.com",
		EmailVerifySubject:  "Verify",
		EmailVerifyTemplate: "Hi {{name}}, open {{link}}",
	}, logging.Discard())

	user := &models.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, svc.SendVerification(context.Background(), user, "http://x/validate"))

	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "ada@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "Verify", got.Subject)
	assert.Equal(t, "Hi Ada Lovelace, open http://x/validate", got.Content[0].Value)
}

func TestEmailServiceEscapesNames(t *testing.T) {
	var got emailMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := NewEmailService(&config.Config{
		EmailAPIURL:        server.URL,
		EmailAPIKey:        "key",
		EmailOrderSubject:  "New order",
		EmailOrderTemplate: "<p>Hello {{name}}, {{count}} new</p>",
	}, logging.Discard())

	vendor := &models.User{Email: "v@example.com", FirstName: "<script>alert(1)</script>", LastName: "O'Neil & Co"}
	require.NoError(t, svc.SendOrderNotification(context.Background(), vendor, 2))

	require.Len(t, got.Content, 1)
	assert.Equal(t, "<p>Hello &lt;script&gt;alert(1)&lt;/script&gt; O&#39;Neil &amp; Co, 2 new</p>", got.Content[0].Value)
}

func TestEmailServiceWithoutKeySkips(t *testing.T) {
	svc := NewEmailService(&config.Config{EmailAPIURL: "http://127.0.0.1:1"}, logging.Discard())
	assert.NoError(t, svc.Send(context.Background(), "a@b.co", "", "s", "b"))
}

func TestEmailServiceRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewEmailService(&config.Config{EmailAPIURL: server.URL, EmailAPIKey: "bad"}, logging.Discard())
	assert.Error(t, svc.Send(context.Background(), "a@b.co", "", "s", "b"))
}
