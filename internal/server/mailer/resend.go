package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatauth/internal/common"
	"github.com/resend/resend-go/v2"
	"github.com/samber/oops"
)

// PermanentError is a delivery failure that retrying cannot fix, such as
// a rejected API key or a malformed recipient.
type PermanentError struct {
	Status  int
	Message string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("resend: status %d: %s", e.Status, e.Message)
}

// ResendSender sends messages through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender builds a sender for apiKey. An empty baseURL keeps the
// SDK default; a nil httpClient gets a 15 second timeout.
func NewResendSender(apiKey, baseURL string, httpClient *http.Client) (*ResendSender, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	recording := *httpClient
	next := recording.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	recording.Transport = statusRecorder{next: next}

	client := resend.NewCustomClient(&recording, apiKey)
	if baseURL != "" {
		// The SDK resolves "emails" against BaseURL, so it must end in a slash.
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("resend base url: %w", err)
		}
		client.BaseURL = u
	}

	return &ResendSender{client: client}, nil
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	var status int
	ctx = context.WithValue(ctx, statusKey{}, &status)

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err == nil {
		return nil
	}

	// No status means the request never got an answer.
	if status == 0 || status == http.StatusTooManyRequests || status >= 500 {
		return oops.Code("EMAIL_FAILED").In("resend").With("status", status).Wrap(fmt.Errorf("%w: %w", common.ErrEmailFailed, err))
	}
	return fmt.Errorf("%w: %w", &PermanentError{Status: status, Message: err.Error()}, common.ErrEmailFailed)
}

type statusKey struct{}

// statusRecorder stores the response status in the *int the request
// context carries under statusKey. The SDK's errors do not expose it.
type statusRecorder struct {
	next http.RoundTripper
}

func (r statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if resp != nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}
