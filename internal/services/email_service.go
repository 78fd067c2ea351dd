package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/models"
)

// EmailService sends transactional mail through a SendGrid compatible HTTP
// API.
type EmailService struct {
	apiURL         string
	apiKey         string
	from           string
	verifySubject  string
	verifyTemplate string
	orderSubject   string
	orderTemplate  string
	client         *http.Client
	log            *logrus.Entry
}

// NewEmailService creates a new EmailService.
func NewEmailService(cfg *config.Config, log *logrus.Logger) *EmailService {
	return &EmailService{
		apiURL:         cfg.EmailAPIURL,
		apiKey:         cfg.EmailAPIKey,
		from:           cfg.EmailFrom,
		verifySubject:  cfg.EmailVerifySubject,
		verifyTemplate: cfg.EmailVerifyTemplate,
		orderSubject:   cfg.EmailOrderSubject,
		orderTemplate:  cfg.EmailOrderTemplate,
		client:         &http.Client{Timeout: 10 * time.Second},
		log:            log.WithField("component", "email"),
	}
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type emailPersonalization struct {
	To []emailAddress `json:"to"`
}

type emailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type emailMessage struct {
	Personalizations []emailPersonalization `json:"personalizations"`
	From             emailAddress           `json:"from"`
	Subject          string                 `json:"subject"`
	Content          []emailContent         `json:"content"`
}

// SendVerification mails the account verification link.
func (s *EmailService) SendVerification(ctx context.Context, user *models.User, link string) error {
	body := render(s.verifyTemplate, map[string]string{
		"name": user.FullName(),
		"link": link,
	})
	return s.Send(ctx, user.Email, user.FullName(), s.verifySubject, body)
}

// SendOrderNotification tells a vendor that lines were ordered.
func (s *EmailService) SendOrderNotification(ctx context.Context, vendor *models.User, lines int) error {
	body := render(s.orderTemplate, map[string]string{
		"name":  vendor.FullName(),
		"count": strconv.Itoa(lines),
	})
	return s.Send(ctx, vendor.Email, vendor.FullName(), s.orderSubject, body)
}

// Send delivers a single HTML message.
func (s *EmailService) Send(ctx context.Context, to, name, subject, body string) error {
	if s.apiKey == "" {
		s.log.WithField("to", to).Debug("email api key not configured, skipping send")
		return nil
	}

	msg := emailMessage{
		Personalizations: []emailPersonalization{{To: []emailAddress{{Email: to, Name: name}}}},
		From:             emailAddress{Email: s.from},
		Subject:          subject,
		Content:          []emailContent{{Type: "text/html", Value: body}},
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email api returned status %d", resp.StatusCode)
	}

	return nil
}

// render fills {{key}} placeholders with HTML-escaped values.
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", html.EscapeString(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
