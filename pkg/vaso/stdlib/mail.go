package stdlib

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/resend/resend-go/v2"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

// Common errors
var (
	ErrProviderNotConfigured = errors.New("mail provider not configured")
	ErrInvalidProvider       = errors.New("invalid mail provider")
	ErrSendFailed            = errors.New("failed to send mail")
)

// MailConfig selects and configures the provider behind Mail.send.
type MailConfig struct {
	Provider string // "mailgun" or "resend"
	APIKey   string
	Domain   string // mailgun only
	Region   string // mailgun only: "us" or "eu"
	From     string
}

// Provider sends transactional mail.
type Provider interface {
	Send(ctx context.Context, msg *Message) (messageID string, err error)
	Name() string
}

// Message is a provider-agnostic mail message.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
}

var mailFunctions = map[string]builtin{
	"send": mailSend,
}

func newProvider(cfg MailConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, ErrProviderNotConfigured
	case "mailgun":
		return NewMailgunProvider(cfg.APIKey, cfg.Domain, cfg.From, cfg.Region)
	case "resend":
		return NewResendProvider(cfg.APIKey, cfg.From)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, cfg.Provider)
}

// mailSend sends a plain-text message and returns on carrying the
// provider's message id.
func mailSend(l *Library, args []value.Value) value.Value {
	to, tok := strArg(args, 0)
	subject, sok := strArg(args, 1)
	text, xok := strArg(args, 2)
	if !tok || !sok || !xok {
		return argError("Mail.send", "(Str to, Str subject, Str text)")
	}

	if l.mail == nil {
		_, err := newProvider(l.opts.Mail)
		if errors.Is(err, ErrProviderNotConfigured) {
			return value.NewError("Mail not configured")
		}
		return value.NewError("Mail Error: " + err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := l.mail.Send(ctx, &Message{
		From:    l.opts.Mail.From,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return value.NewError("Mail Error: " + err.Error())
	}
	return value.NewStatus(value.On, "Mail Sent: "+id)
}

// MailgunProvider sends mail via the Mailgun API.
type MailgunProvider struct {
	client *mailgun.MailgunImpl
	from   string
}

// NewMailgunProvider creates a Mailgun provider. Region "eu" selects the
// EU API endpoint.
func NewMailgunProvider(apiKey, domain, from, region string) (*MailgunProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("mailgun API key is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("mailgun domain is required")
	}
	if from == "" {
		return nil, fmt.Errorf("from address is required")
	}

	mg := mailgun.NewMailgun(domain, apiKey)
	if region == "eu" {
		mg.SetAPIBase("https://api.eu.mailgun.net/v3")
	}

	return &MailgunProvider{client: mg, from: from}, nil
}

func (p *MailgunProvider) Send(ctx context.Context, msg *Message) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}

	from := msg.From
	if from == "" {
		from = p.from
	}
	m := p.client.NewMessage(from, msg.Subject, msg.Text, msg.To...)

	_, id, err := p.client.Send(ctx, m)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return id, nil
}

func (p *MailgunProvider) Name() string {
	return "mailgun"
}

// ResendProvider sends mail via the Resend API.
type ResendProvider struct {
	client *resend.Client
	from   string
}

// NewResendProvider creates a Resend provider.
func NewResendProvider(apiKey, from string) (*ResendProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("from address is required")
	}

	return &ResendProvider{client: resend.NewClient(apiKey), from: from}, nil
}

func (p *ResendProvider) Send(ctx context.Context, msg *Message) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}

	from := msg.From
	if from == "" {
		from = p.from
	}
	sent, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return sent.Id, nil
}

func (p *ResendProvider) Name() string {
	return "resend"
}

func validateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if len(msg.To) == 0 || msg.To[0] == "" {
		return fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if msg.Text == "" {
		return fmt.Errorf("text body is required")
	}
	return nil
}
