package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailProvider struct {
	to, subject, body string
	err               error
	calls             int
}

func (f *fakeEmailProvider) Send(ctx context.Context, to, subject, body string) error {
	f.calls++
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

type fakeWhatsAppProvider struct {
	phone, text string
	err         error
	calls       int
}

func (f *fakeWhatsAppProvider) SendText(ctx context.Context, phone, text string) error {
	f.calls++
	f.phone, f.text = phone, text
	return f.err
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"plus and spaces", "+49 171 1234567", "491711234567"},
		{"dashes", "49-171-1234567", "491711234567"},
		{"already clean", "491711234567", "491711234567"},
		{"surrounding whitespace", "  +49 171 1234567  ", "491711234567"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.phone))
		})
	}
}

func TestMessengerDispatch(t *testing.T) {
	email := &fakeEmailProvider{}
	whatsapp := &fakeWhatsAppProvider{}
	m := NewMessenger(email, whatsapp, nil)

	ok := m.Deliver(context.Background(), "dana@example.com", "hello", "email", "Message from Launch")
	assert.True(t, ok)
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 0, whatsapp.calls)
	assert.Equal(t, "dana@example.com", email.to)
	assert.Equal(t, "Message from Launch", email.subject)

	ok = m.Deliver(context.Background(), "491711234567", "hello", "whatsapp", "")
	assert.True(t, ok)
	assert.Equal(t, 1, whatsapp.calls)
	assert.Equal(t, "491711234567", whatsapp.phone)
	assert.Equal(t, "hello", whatsapp.text)
}

func TestMessengerDeliveryFailure(t *testing.T) {
	email := &fakeEmailProvider{err: fmt.Errorf("relay down")}
	m := NewMessenger(email, nil, nil)

	ok := m.Deliver(context.Background(), "dana@example.com", "hello", "email", "subject")
	assert.False(t, ok)
}

func TestMessengerMissingProvider(t *testing.T) {
	m := NewMessenger(nil, nil, nil)

	assert.False(t, m.Deliver(context.Background(), "dana@example.com", "hello", "email", "subject"))
	assert.False(t, m.Deliver(context.Background(), "491711234567", "hello", "whatsapp", ""))
}

func TestWAHASendText(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	provider := NewWAHAProvider(server.URL, "default", "secret", 5*time.Second)
	err := provider.SendText(context.Background(), "+49 171 1234567", "hello there")
	require.NoError(t, err)

	assert.Equal(t, "/api/sendText", gotPath)
	assert.Equal(t, "secret", gotAPIKey)
	assert.Equal(t, "491711234567@c.us", gotPayload["chatId"])
	assert.Equal(t, "hello there", gotPayload["text"])
	assert.Equal(t, "default", gotPayload["session"])
}

func TestWAHASendTextErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not started", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	provider := NewWAHAProvider(server.URL, "default", "", 5*time.Second)
	err := provider.SendText(context.Background(), "491711234567", "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestWAHASendTextEmptyPhone(t *testing.T) {
	provider := NewWAHAProvider("http://localhost:0", "default", "", 5*time.Second)
	err := provider.SendText(context.Background(), "   ", "hello")
	assert.Error(t, err)
}
