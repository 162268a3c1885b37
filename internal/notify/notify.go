// Package notify sends approval and publish notifications by email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/logger"
)

// Gmail SMTP defaults.
const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 587
	DefaultTimeout = 30 * time.Second
)

// PreviewChars is the length of the post preview in the approval email.
const PreviewChars = 200

// Email subjects.
const (
	SubjectPending   = "New Threads Post Ready for Approval"
	SubjectPublished = "Threads Post Published Successfully"
)

// Notifier announces draft lifecycle events to the operator.
type Notifier interface {
	NotifyPending(ctx context.Context, d content.Draft) error
	NotifyPublished(ctx context.Context, d content.Draft) error
}

// Nop is a Notifier that does nothing. Used when email is not configured.
type Nop struct{}

func (Nop) NotifyPending(context.Context, content.Draft) error   { return nil }
func (Nop) NotifyPublished(context.Context, content.Draft) error { return nil }

// SMTPConfig configures the SMTP notifier.
type SMTPConfig struct {
	Host     string        // default: smtp.gmail.com
	Port     int           // default: 587
	Username string        // sender address, also the login
	Password string        // app password
	To       string        // recipient
	BaseURL  string        // approval links are built from this
	Timeout  time.Duration // bounds one whole send; default 30s
}

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTP sends plain-text notification emails over STARTTLS.
type SMTP struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewSMTP creates an SMTP notifier.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.To == "" {
		return nil, fmt.Errorf("smtp notifier requires username, password and recipient")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	s := &SMTP{cfg: cfg}
	s.send = s.dialAndSend
	return s, nil
}

// NotifyPending emails the draft with approve and reject links.
func (s *SMTP) NotifyPending(ctx context.Context, d content.Draft) error {
	return s.deliver(ctx, SubjectPending, PendingBody(d, s.cfg.BaseURL))
}

// NotifyPublished emails a confirmation with the thread link.
func (s *SMTP) NotifyPublished(ctx context.Context, d content.Draft) error {
	return s.deliver(ctx, SubjectPublished, PublishedBody(d))
}

func (s *SMTP) deliver(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.message(subject, body)
	if err != nil {
		return fmt.Errorf("build %q: %w", subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.send(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return fmt.Errorf("send %q: %w", subject, err)
	}
	logger.DebugWithFields("notification sent", logger.Fields{"subject": subject, "to": s.cfg.To})
	return nil
}

func (s *SMTP) message(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(s.cfg.Username); err != nil {
		return nil, err
	}
	if err := msg.To(s.cfg.To); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *SMTP) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithDialContextFunc(boundedDialer(ctx, s.cfg.Timeout)),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// boundedDialer gives each connection a hard deadline and cuts it off once
// ctx is done.
func boundedDialer(ctx context.Context, timeout time.Duration) mail.DialContextFunc {
	return func(dialCtx context.Context, network, address string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(dialCtx, network, address)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			conn.Close()
			return nil, err
		}
		context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
		return conn, nil
	}
}

// ApprovalLinks returns the approve and reject URLs for a draft.
func ApprovalLinks(baseURL, id string) (approve, reject string) {
	page := strings.TrimRight(baseURL, "/") + "/approve/" + id
	return page + "?action=approve", page + "?action=reject"
}

// PendingBody renders the approval request email.
func PendingBody(d content.Draft, baseURL string) string {
	approve, reject := ApprovalLinks(baseURL, d.ID)

	var b strings.Builder
	b.WriteString("A new post has been generated and is waiting for your approval.\n\n")
	fmt.Fprintf(&b, "Generation Mode: %s\n\n", strings.ToUpper(string(d.Mode)))
	fmt.Fprintf(&b, "Post Preview:\n%s\n\n", content.Preview(d.Text, PreviewChars))
	fmt.Fprintf(&b, "---\nFull Post (%d characters):\n%s\n---\n\n", content.CountChars(d.Text), d.Text)
	fmt.Fprintf(&b, "Approve: %s\nReject: %s\n\n", approve, reject)
	fmt.Fprintf(&b, "View All Pending: %s\n", strings.TrimRight(baseURL, "/"))
	return b.String()
}

// PublishedBody renders the publish confirmation email.
func PublishedBody(d content.Draft) string {
	var b strings.Builder
	b.WriteString("Your post has been published to Threads!\n\n")
	fmt.Fprintf(&b, "Post:\n%s\n\n", d.Text)
	if d.ThreadURL != nil && *d.ThreadURL != "" {
		fmt.Fprintf(&b, "View on Threads: %s\n", *d.ThreadURL)
	}
	return b.String()
}
