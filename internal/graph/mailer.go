package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production Graph endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// sendTimeout bounds the outbound mail call. The mailer is single-shot:
// one POST per invocation, no retry, no batching.
const sendTimeout = 20 * time.Second

// Sender performs exactly one outbound send per call.
type Sender interface {
	Send(ctx context.Context, token string, recipients []string, subject, htmlBody string) error
}

// SendError is a structured non-success response from the mail API.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("graph sendMail returned %d: %s", e.StatusCode, e.Body)
}

// Mailer sends mail through the Graph sendMail endpoint. SenderUser selects
// the organizational "send as" mailbox; empty means "send as the
// authenticated principal" (/me/sendMail).
type Mailer struct {
	BaseURL    string
	SenderUser string
	Client     *http.Client
	Logger     *slog.Logger
}

// NewMailer creates a Graph mailer with the fixed send timeout.
func NewMailer(senderUser string, logger *slog.Logger) *Mailer {
	return &Mailer{
		BaseURL:    DefaultBaseURL,
		SenderUser: senderUser,
		Client:     &http.Client{Timeout: sendTimeout},
		Logger:     logger,
	}
}

// Graph sendMail request body. Wire shape:
// {"message":{"subject":...,"body":{"contentType":"HTML","content":...},
//  "toRecipients":[{"emailAddress":{"address":...}},...]}}
type sendMailRequest struct {
	Message message `json:"message"`
}

type message struct {
	Subject      string      `json:"subject"`
	Body         messageBody `json:"body"`
	ToRecipients []recipient `json:"toRecipients"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Address string `json:"address"`
}

// Send performs the single outbound call. A non-2xx response or transport
// failure is returned as an error; the caller's boundary decides what to do
// with it (log and move on).
func (m *Mailer) Send(ctx context.Context, token string, recipients []string, subject, htmlBody string) error {
	payload := sendMailRequest{
		Message: message{
			Subject:      subject,
			Body:         messageBody{ContentType: "HTML", Content: htmlBody},
			ToRecipients: make([]recipient, 0, len(recipients)),
		},
	}
	for _, addr := range recipients {
		payload.Message.ToRecipients = append(payload.Message.ToRecipients, recipient{
			EmailAddress: emailAddress{Address: addr},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sendMail body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sendMail call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Cap the captured body; Graph error payloads are small but we do
		// not trust upstream sizes.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &SendError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	m.Logger.Info("mail_sent",
		"recipients", len(recipients),
		"subject", subject,
	)
	return nil
}

func (m *Mailer) endpoint() string {
	if m.SenderUser != "" {
		return m.BaseURL + "/users/" + url.PathEscape(m.SenderUser) + "/sendMail"
	}
	return m.BaseURL + "/me/sendMail"
}
