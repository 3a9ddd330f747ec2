// Package render turns template ids into rendered email content before
// handing them to a Mailer. Templates use go-template (pongo2 syntax); the
// plain text part is derived from the HTML body.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gotemplate "github.com/goliatone/go-template"
	"github.com/jaytaylor/html2text"

	"github.com/goliatone/go-crypta/pkg/notify"
)

var (
	ErrUnknownTemplate = errors.New("render: unknown template")
	ErrMailerRequired  = errors.New("render: mailer is required")
)

// Template is a subject/body pair. Subject may be empty, in which case the
// "subject" entry of the payload is used verbatim.
type Template struct {
	Subject string
	HTML    string
}

// Message is the rendered email handed to a Mailer.
type Message struct {
	TemplateID string
	Recipient  string
	Subject    string
	HTML       string
	Text       string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Deliver(ctx context.Context, msg Message) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, msg Message) error

func (f MailerFunc) Deliver(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Dispatcher renders templates and forwards the result to a Mailer.
type Dispatcher struct {
	mailer    Mailer
	templates map[string]Template

	renderMu sync.Mutex
	engine   *gotemplate.Engine
}

var _ notify.Dispatcher = (*Dispatcher)(nil)

// Option configures the dispatcher.
type Option func(*settings)

type settings struct {
	templates    map[string]Template
	rendererOpts []gotemplate.Option
}

// WithTemplate registers or replaces a single template.
func WithTemplate(id string, tpl Template) Option {
	return func(s *settings) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		s.templates[id] = tpl
	}
}

// WithTemplates registers templates in bulk.
func WithTemplates(templates map[string]Template) Option {
	return func(s *settings) {
		for id, tpl := range templates {
			WithTemplate(id, tpl)(s)
		}
	}
}

// WithRendererOptions forwards options to the go-template engine.
func WithRendererOptions(opts ...gotemplate.Option) Option {
	return func(s *settings) {
		s.rendererOpts = append(s.rendererOpts, opts...)
	}
}

// New builds a dispatcher seeded with DefaultTemplates.
func New(mailer Mailer, opts ...Option) (*Dispatcher, error) {
	if mailer == nil {
		return nil, ErrMailerRequired
	}
	cfg := settings{templates: DefaultTemplates()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rendererOpts := append([]gotemplate.Option{gotemplate.WithBaseDir(".")}, cfg.rendererOpts...)
	engine, err := gotemplate.NewRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("render: configure engine: %w", err)
	}

	return &Dispatcher{
		mailer:    mailer,
		templates: cfg.templates,
		engine:    engine,
	}, nil
}

// Send renders templateID with data and delivers it to recipient.
func (d *Dispatcher) Send(ctx context.Context, templateID, recipient string, data map[string]any) error {
	msg, err := d.Render(templateID, recipient, data)
	if err != nil {
		return err
	}
	return d.mailer.Deliver(ctx, msg)
}

// Render produces the message without delivering it.
func (d *Dispatcher) Render(templateID, recipient string, data map[string]any) (Message, error) {
	tpl, ok := d.templates[templateID]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	payload := make(map[string]any, len(data))
	for k, v := range data {
		payload[k] = v
	}

	d.renderMu.Lock()
	defer d.renderMu.Unlock()

	subject, _ := payload["subject"].(string)
	if tpl.Subject != "" {
		rendered, err := d.engine.RenderString(tpl.Subject, payload)
		if err != nil {
			return Message{}, fmt.Errorf("render: subject %s: %w", templateID, err)
		}
		subject = rendered
	}
	html, err := d.engine.RenderString(tpl.HTML, payload)
	if err != nil {
		return Message{}, fmt.Errorf("render: body %s: %w", templateID, err)
	}
	text, err := html2text.FromString(html, html2text.Options{PrettyTables: true})
	if err != nil {
		return Message{}, fmt.Errorf("render: text %s: %w", templateID, err)
	}

	return Message{
		TemplateID: templateID,
		Recipient:  recipient,
		Subject:    strings.TrimSpace(subject),
		HTML:       html,
		Text:       text,
	}, nil
}
