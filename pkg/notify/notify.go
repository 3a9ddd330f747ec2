// Package notify turns lifecycle events into templated messages and hands
// them to a Dispatcher. Delivery is best effort: failures are logged and
// never reach the caller.
package notify

import (
	"context"
	"fmt"
	"strings"

	i18n "github.com/goliatone/go-i18n"

	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/redact"
	"github.com/goliatone/go-crypta/pkg/retry"
)

// Kind identifies a notification type.
type Kind string

const (
	KindInviteSent     Kind = "invite-sent"
	KindInviteAccepted Kind = "invite-accepted"
	KindRolePromoted   Kind = "role-promoted"
	KindRoleDemoted    Kind = "role-demoted"
)

// DefaultTemplates maps every kind to its template id.
var DefaultTemplates = map[Kind]string{
	KindInviteSent:     "crypta.invite.sent",
	KindInviteAccepted: "crypta.invite.accepted",
	KindRolePromoted:   "crypta.role.promoted",
	KindRoleDemoted:    "crypta.role.demoted",
}

const (
	SubjectInviteSent = "You've received a invite to join a Vault!"
	subjectAccepted   = "%s accepted your invite!"
)

// AcceptedSubject renders the subject sent to an inviter.
func AcceptedSubject(invitee string) string {
	return fmt.Sprintf(subjectAccepted, invitee)
}

// Event is a single notification request. SubjectKey and SubjectArgs let a
// translator localize the subject for Locale.
type Event struct {
	Kind        Kind
	Recipient   string
	Locale      string
	SubjectKey  string
	SubjectArgs []any
	Data        map[string]any
}

// Dispatcher delivers a rendered template reference to a recipient.
type Dispatcher interface {
	Send(ctx context.Context, templateID, recipient string, data map[string]any) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, templateID, recipient string, data map[string]any) error

func (f DispatcherFunc) Send(ctx context.Context, templateID, recipient string, data map[string]any) error {
	return f(ctx, templateID, recipient, data)
}

// Sink receives notification events.
type Sink interface {
	Notify(ctx context.Context, evt Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Notifier resolves templates and forwards events to a Dispatcher.
type Notifier struct {
	dispatcher Dispatcher
	templates  map[Kind]string
	disabled   bool
	attempts   int
	backoff    retry.Backoff
	translator i18n.Translator
	locale     string
	logger     logger.Logger
}

var _ Sink = (*Notifier)(nil)

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used for delivery failures.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithTemplates overrides template ids keyed by kind name.
func WithTemplates(overrides map[string]string) Option {
	return func(n *Notifier) {
		for kind, id := range overrides {
			if id = strings.TrimSpace(id); id != "" {
				n.templates[Kind(kind)] = id
			}
		}
	}
}

// WithDisabled turns the notifier into a no-op.
func WithDisabled(disabled bool) Option {
	return func(n *Notifier) {
		n.disabled = disabled
	}
}

// WithRetry retries failed dispatches up to attempts times in total.
func WithRetry(attempts int, backoff retry.Backoff) Option {
	return func(n *Notifier) {
		if attempts > 0 {
			n.attempts = attempts
		}
		if backoff != nil {
			n.backoff = backoff
		}
	}
}

// WithTranslator localizes subjects, using defaultLocale when an event names
// none.
func WithTranslator(translator i18n.Translator, defaultLocale string) Option {
	return func(n *Notifier) {
		n.translator = translator
		if locale := strings.TrimSpace(defaultLocale); locale != "" {
			n.locale = locale
		}
	}
}

// New builds a Notifier around dispatcher.
func New(dispatcher Dispatcher, opts ...Option) *Notifier {
	n := &Notifier{
		dispatcher: dispatcher,
		templates:  make(map[Kind]string, len(DefaultTemplates)),
		attempts:   1,
		backoff:    retry.DefaultBackoff(),
		locale:     DefaultLocale,
		logger:     &logger.Nop{},
	}
	for kind, id := range DefaultTemplates {
		n.templates[kind] = id
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Template returns the template id configured for kind.
func (n *Notifier) Template(kind Kind) (string, bool) {
	id, ok := n.templates[kind]
	return id, ok
}

// Notify delivers evt. Errors and panics raised by the dispatcher are logged
// and swallowed.
func (n *Notifier) Notify(ctx context.Context, evt Event) {
	if n == nil || n.disabled || n.dispatcher == nil {
		return
	}
	lgr := n.logger.With(
		logger.Field{Key: "kind", Value: string(evt.Kind)},
		logger.Field{Key: "recipient", Value: redact.Email(evt.Recipient)},
	)
	templateID, ok := n.templates[evt.Kind]
	if !ok {
		lgr.Warn("notify: unknown kind")
		return
	}
	if strings.TrimSpace(evt.Recipient) == "" {
		lgr.Warn("notify: missing recipient")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			lgr.Error("notify: dispatcher panic", logger.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()

	data := n.localize(evt)
	err := retry.Do(ctx, n.attempts, n.backoff, func(ctx context.Context) error {
		return n.dispatcher.Send(ctx, templateID, evt.Recipient, data)
	})
	if err != nil {
		lgr.Warn("notify: dispatch failed",
			logger.Field{Key: "template_id", Value: templateID},
			logger.Field{Key: "attempts", Value: n.attempts},
			logger.Field{Key: "error", Value: err},
		)
		return
	}
	lgr.Debug("notify: dispatched", logger.Field{Key: "template_id", Value: templateID})
}
