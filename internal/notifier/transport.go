package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ikkim/talentbase-backend/pkg/logger"
	"github.com/resend/resend-go/v2"
)

// LogTransport writes emails to Out instead of sending them. Meant for development.
type LogTransport struct {
	mu  sync.Mutex
	Out io.Writer
}

func NewLogTransport(out io.Writer) *LogTransport {
	if out == nil {
		out = os.Stdout
	}
	return &LogTransport{Out: out}
}

func (t *LogTransport) Deliver(_ context.Context, email Email) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.Out, "From: %s\nTo: %s\nSubject: %s\n\n%s\n-----\n",
		email.From, strings.Join(email.To, ", "), email.Subject, email.Text)
	if err != nil {
		return fmt.Errorf("failed to write email: %w", err)
	}

	logger.Info("Email written to log transport", map[string]interface{}{
		"subject":    email.Subject,
		"recipients": len(email.To),
	})
	return nil
}

type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendTransport delivers through the Resend API.
type ResendTransport struct {
	emails emailSender
}

func NewResendTransport(apiKey string) *ResendTransport {
	client := resend.NewClient(apiKey)
	return &ResendTransport{emails: client.Emails}
}

func (t *ResendTransport) Deliver(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := t.emails.Send(&resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("resend email failed: %w", err)
	}

	logger.Debug("Email accepted by Resend", map[string]interface{}{
		"email_id":   resp.Id,
		"recipients": len(email.To),
	})
	return nil
}
