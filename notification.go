package identity

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-errors"
)

// JobTypeEmail tags notification jobs for the email consumer.
const JobTypeEmail = "email"

// NotificationJob is the message handed to the queue. It is created per
// triggering event, owned by the publish call, and never persisted here.
type NotificationJob struct {
	TemplateID string         `json:"template_id"`
	UserID     string         `json:"user_id"`
	Email      string         `json:"email"`
	Type       string         `json:"type"`
	ExtraData  map[string]any `json:"extra_data"`
}

// Publisher delivers a serialized job to the durable queue. A nil error
// means the broker accepted the message, nothing more.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, body []byte) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, body []byte) error {
	if f == nil {
		return nil
	}
	return f(ctx, body)
}

// EmailDispatcher builds notification jobs for the configured templates
// and drives the publisher. It implements Mailer.
type EmailDispatcher struct {
	publisher            Publisher
	confirmationTemplate string
	resetTemplate        string
	logger               Logger
}

var _ Mailer = (*EmailDispatcher)(nil)

// NewEmailDispatcher wires a dispatcher to the queue publisher and the
// two notification templates from config.
func NewEmailDispatcher(publisher Publisher, cfg Config) *EmailDispatcher {
	return &EmailDispatcher{
		publisher:            publisher,
		confirmationTemplate: cfg.ConfirmationTemplate,
		resetTemplate:        cfg.ResetTemplate,
		logger:               defLogger{},
	}
}

// WithLogger overrides the dispatcher logger.
func (d *EmailDispatcher) WithLogger(logger Logger) *EmailDispatcher {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// SendConfirmation publishes a confirmation-email job carrying the
// confirmation token and the account's display name.
func (d *EmailDispatcher) SendConfirmation(ctx context.Context, profile *Profile, token string) error {
	return d.publish(ctx, d.confirmationTemplate, profile, token)
}

// SendPasswordReset publishes a reset-email job; same payload shape as
// confirmation, different template.
func (d *EmailDispatcher) SendPasswordReset(ctx context.Context, profile *Profile, token string) error {
	return d.publish(ctx, d.resetTemplate, profile, token)
}

func (d *EmailDispatcher) publish(ctx context.Context, templateID string, profile *Profile, token string) error {
	if profile == nil {
		return errors.New("notification requires an account profile", errors.CategoryBadInput)
	}

	job := &NotificationJob{
		TemplateID: templateID,
		UserID:     profile.ID.String(),
		Email:      profile.Email,
		Type:       JobTypeEmail,
		ExtraData: map[string]any{
			"token": token,
			"name":  profile.Name,
		},
	}

	body, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to serialize notification job")
	}

	if err := d.publisher.Publish(ctx, body); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to publish notification job")
	}

	d.logger.Debug("published %s job for user %s", templateID, job.UserID)

	return nil
}
