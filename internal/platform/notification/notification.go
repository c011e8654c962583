// Package notification delivers stock and adherence messages to patients
// with template rendering, in-memory history, and retry logic.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type represents the channel used to deliver a notification.
type Type string

const (
	TypeEmail Type = "email"
	TypePush  Type = "push"
)

// Notification represents a single outbound notification.
type Notification struct {
	ID           string            `json:"id"`
	Type         Type              `json:"type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Sender is the interface for delivering a rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "stock-depleted",
			Name:    "Stock Depleted",
			Subject: "{{medication}} has run out",
			Body:    "{{medication}} has run out. Please restock to continue your treatment.",
		},
		{
			ID:      "stock-low",
			Name:    "Stock Low",
			Subject: "{{medication}} is running low",
			Body:    "{{medication}}: about {{days}} day(s) of stock left. Add stock to complete the treatment.",
		},
		{
			ID:      "dose-reminder",
			Name:    "Dose Reminder",
			Subject: "Time to take {{medication}}",
			Body:    "It is {{time}}. Time to take your {{medication}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from data
// are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Service renders and delivers notifications, keeping an in-memory history.
type Service struct {
	mu       sync.Mutex
	engine   *TemplateEngine
	sender   Sender
	history  []*Notification
	maxRetry int
}

func NewService(sender Sender) *Service {
	return &Service{
		engine:   NewTemplateEngine(),
		sender:   sender,
		maxRetry: 3,
	}
}

// Engine exposes the template engine for registration of custom templates.
func (s *Service) Engine() *TemplateEngine { return s.engine }

// SendTemplate renders the template and delivers it, retrying transient
// failures up to three times.
func (s *Service) SendTemplate(ctx context.Context, recipient, templateID string, data map[string]string) (*Notification, error) {
	subject, body, err := s.engine.Render(templateID, data)
	if err != nil {
		return nil, err
	}

	n := &Notification{
		ID:           uuid.NewString(),
		Type:         TypeEmail,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
		Status:       "pending",
		CreatedAt:    time.Now(),
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetry; attempt++ {
		lastErr = s.sender.Send(ctx, recipient, subject, body)
		if lastErr == nil {
			now := time.Now()
			n.Status = "sent"
			n.SentAt = &now
			break
		}
	}
	if lastErr != nil {
		n.Status = "failed"
		n.Error = lastErr.Error()
	}

	s.mu.Lock()
	s.history = append(s.history, n)
	s.mu.Unlock()

	if lastErr != nil {
		return n, fmt.Errorf("send notification: %w", lastErr)
	}
	return n, nil
}

// History returns a copy of all recorded notifications.
func (s *Service) History() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Notification, len(s.history))
	copy(out, s.history)
	return out
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu         sync.Mutex
	calls      []SendCall
	ShouldFail bool
	FailError  string
}

// SendCall records a single call to Send.
type SendCall struct {
	To      string
	Subject string
	Body    string
}

// Send records the call and optionally returns an error.
func (m *MockSender) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SendCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded calls.
func (m *MockSender) Calls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendCall, len(m.calls))
	copy(out, m.calls)
	return out
}
