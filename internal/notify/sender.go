// internal/notify/sender.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/models"
)

// EmailSender is the slice of the SES client the sender needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Publisher is the slice of the SNS client the sender needs.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ContactDirectory resolves a user id to a deliverable address.
type ContactDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
}

// Template is one renderable notification. Placeholders use {{name}} and
// resolve against the send payload.
type Template struct {
	Subject string
	Body    string
}

// Config controls delivery channels. Email is the primary channel; SNS is an
// optional fan-out for platform consumers listening on a topic.
type Config struct {
	FromEmail string
	TopicARN  string
}

// Sender delivers engine notifications over SES, with an optional SNS
// publish per send. It looks up the recipient's address at send time so a
// stale id fails loudly instead of emailing nobody.
type Sender struct {
	email     EmailSender
	topics    Publisher
	contacts  ContactDirectory
	config    Config
	templates map[string]Template
	log       logger.Logger
}

func NewSender(email EmailSender, topics Publisher, contacts ContactDirectory, cfg Config, log logger.Logger) *Sender {
	return &Sender{
		email:     email,
		topics:    topics,
		contacts:  contacts,
		config:    cfg,
		templates: defaultTemplates(),
		log:       log,
	}
}

// SetTemplate overrides the template for one notification kind.
func (s *Sender) SetTemplate(kind string, t Template) {
	s.templates[kind] = t
}

// Send delivers one notification of the given kind to userID.
func (s *Sender) Send(ctx context.Context, userID, kind string, payload map[string]interface{}) error {
	recipient, err := s.contacts.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if recipient == nil || recipient.Email == "" {
		return errors.NewCandidateNotFoundError(userID)
	}

	tmpl, ok := s.templates[kind]
	if !ok {
		tmpl = s.templates[models.KindInstantMatchAlert]
	}

	messageID := uuid.NewString()
	subject := renderTemplate(tmpl.Subject, payload)
	body := renderTemplate(tmpl.Body, payload)

	if s.email != nil {
		_, err := s.email.SendEmail(ctx, &ses.SendEmailInput{
			Source: aws.String(s.config.FromEmail),
			Destination: &sestypes.Destination{
				ToAddresses: []string{recipient.Email},
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		})
		if err != nil {
			return errors.NewNotificationSendFailedError(userID, err)
		}
	}

	if s.topics != nil && s.config.TopicARN != "" {
		if err := s.publish(ctx, userID, kind, payload); err != nil {
			// Email already went out; topic fan-out is best effort.
			s.log.Warn("sns publish failed", map[string]interface{}{
				"userId": userID,
				"kind":   kind,
				"error":  err.Error(),
			})
		}
	}

	s.log.Debug("notification delivered", map[string]interface{}{
		"userId":    userID,
		"kind":      kind,
		"messageId": messageID,
	})
	return nil
}

func (s *Sender) publish(ctx context.Context, userID, kind string, payload map[string]interface{}) error {
	event := map[string]interface{}{
		"userId":  userID,
		"kind":    kind,
		"payload": payload,
		"sentAt":  time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = s.topics.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.config.TopicARN),
		Subject:  aws.String(kind),
		Message:  aws.String(string(raw)),
	})
	return err
}

// renderTemplate substitutes {{name}} placeholders with payload values.
// Unknown placeholders render empty.
func renderTemplate(tmpl string, payload map[string]interface{}) string {
	result := tmpl
	for key, value := range payload {
		result = strings.ReplaceAll(result, "{{"+key+"}}", fmt.Sprintf("%v", value))
	}
	for {
		start := strings.Index(result, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end < 0 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func defaultTemplates() map[string]Template {
	return map[string]Template{
		models.KindInstantMatchAlert: {
			Subject: "New match for job {{jobId}}",
			Body:    "Candidate {{candidateId}} matched job {{jobId}} with a score of {{score}}.",
		},
		models.KindReferrerSuggestionDigest: {
			Subject: "Candidates in your network worth referring",
			Body:    "We found candidates in your referral network that fit open roles. Sign in to review your suggestions.",
		},
	}
}
