package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// DeliveryService delivers outbound messages over a channel. Failures are
// signaled through the boolean so the runner can map them to row status.
type DeliveryService interface {
	Deliver(ctx context.Context, target, body, channel, subject string) bool
}

// EmailProvider sends a single email
type EmailProvider interface {
	Send(ctx context.Context, to, subject, body string) error
}

// WhatsAppProvider sends a single WhatsApp text message
type WhatsAppProvider interface {
	SendText(ctx context.Context, phone, text string) error
}

// MessengerImpl dispatches deliveries to the channel-specific providers
type MessengerImpl struct {
	email    EmailProvider
	whatsapp WhatsAppProvider
	logger   *log.Logger
}

// NewMessenger creates a new delivery service
func NewMessenger(email EmailProvider, whatsapp WhatsAppProvider, logger *log.Logger) DeliveryService {
	return &MessengerImpl{
		email:    email,
		whatsapp: whatsapp,
		logger:   logger,
	}
}

// Deliver sends body to target over the given channel
func (m *MessengerImpl) Deliver(ctx context.Context, target, body, channel, subject string) bool {
	var err error
	switch channel {
	case "whatsapp":
		if m.whatsapp == nil {
			err = fmt.Errorf("whatsapp provider not configured")
		} else {
			err = m.whatsapp.SendText(ctx, target, body)
		}
	default:
		if m.email == nil {
			err = fmt.Errorf("email provider not configured")
		} else {
			err = m.email.Send(ctx, target, subject, body)
		}
	}

	if err != nil {
		if m.logger != nil {
			m.logger.Printf("delivery failed: channel=%s target=%s err=%v", channel, target, err)
		}
		return false
	}

	return true
}

// SMTPEmailProvider sends email through an SMTP relay
type SMTPEmailProvider struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPEmailProvider creates a new SMTP email provider
func NewSMTPEmailProvider(host string, port int, username, password, from string) EmailProvider {
	return &SMTPEmailProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an email to a single recipient
func (p *SMTPEmailProvider) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient is empty")
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", p.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	if err := smtp.SendMail(addr, auth, p.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}

// WAHAProvider sends WhatsApp messages through a WAHA gateway
type WAHAProvider struct {
	baseURL    string
	session    string
	apiKey     string
	httpClient *http.Client
}

// NewWAHAProvider creates a new WAHA WhatsApp provider
func NewWAHAProvider(baseURL, session, apiKey string, timeout time.Duration) WhatsAppProvider {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WAHAProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendText sends a text message to the given phone number
func (p *WAHAProvider) SendText(ctx context.Context, phone, text string) error {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return fmt.Errorf("phone number is empty")
	}

	payload := map[string]any{
		"chatId":  normalized + "@c.us",
		"text":    text,
		"session": p.session,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/sendText", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("waha request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("waha returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// NormalizePhone strips formatting characters so the number can be used as a chat ID
func NormalizePhone(phone string) string {
	replacer := strings.NewReplacer("+", "", " ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(phone))
}
