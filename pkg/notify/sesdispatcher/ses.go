// Package sesdispatcher sends notifications as AWS SES templated emails.
package sesdispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/notify"
	"github.com/goliatone/go-crypta/pkg/redact"
)

// Config holds SES settings.
type Config struct {
	From             string
	Region           string
	Profile          string
	ConfigurationSet string
	DryRun           bool
}

// SESClient abstracts the SES client for testing.
type SESClient interface {
	SendTemplatedEmail(ctx context.Context, params *ses.SendTemplatedEmailInput, optFns ...func(*ses.Options)) (*ses.SendTemplatedEmailOutput, error)
}

// Dispatcher delivers notifications through SES templates. The notify
// template id is used as the SES template name.
type Dispatcher struct {
	cfg    Config
	client SESClient
	logger logger.Logger
}

var _ notify.Dispatcher = (*Dispatcher)(nil)

type Option func(*Dispatcher)

// WithConfig sets the dispatcher configuration.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) {
		if strings.TrimSpace(cfg.Region) == "" {
			cfg.Region = d.cfg.Region
		}
		d.cfg = cfg
	}
}

// WithClient injects a custom SES client.
func WithClient(c SESClient) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New constructs the SES dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:    Config{Region: "us-east-1"},
		logger: &logger.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func (d *Dispatcher) ensureClient(ctx context.Context) error {
	if d.client != nil {
		return nil
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(d.cfg.Region),
	}
	if d.cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(d.cfg.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("sesdispatcher: load config: %w", err)
	}
	d.client = ses.NewFromConfig(cfg, func(o *ses.Options) {
		o.RetryMaxAttempts = 3
	})
	return nil
}

// Send issues a SendTemplatedEmail call with data encoded as the template
// context.
func (d *Dispatcher) Send(ctx context.Context, templateID, recipient string, data map[string]any) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return fmt.Errorf("sesdispatcher: destination required")
	}
	if strings.TrimSpace(templateID) == "" {
		return fmt.Errorf("sesdispatcher: template required")
	}
	if d.cfg.DryRun {
		d.logger.Info("[sesdispatcher:dry-run] send skipped",
			logger.Field{Key: "template_id", Value: templateID},
			logger.Field{Key: "recipient", Value: redact.Email(recipient)},
		)
		return nil
	}
	from := strings.TrimSpace(d.cfg.From)
	if from == "" {
		return fmt.Errorf("sesdispatcher: from required")
	}
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sesdispatcher: encode template data: %w", err)
	}

	if err := d.ensureClient(ctx); err != nil {
		return err
	}

	input := &ses.SendTemplatedEmailInput{
		Destination:  &types.Destination{ToAddresses: []string{recipient}},
		Source:       aws.String(from),
		Template:     aws.String(templateID),
		TemplateData: aws.String(string(payload)),
	}
	if cs := strings.TrimSpace(d.cfg.ConfigurationSet); cs != "" {
		input.ConfigurationSetName = aws.String(cs)
	}

	if _, err := d.client.SendTemplatedEmail(ctx, input); err != nil {
		return fmt.Errorf("sesdispatcher: send templated email: %w", err)
	}
	return nil
}
