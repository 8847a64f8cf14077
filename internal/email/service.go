package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/roamplan/server/internal/config"
	"github.com/roamplan/server/internal/domain/users"
	"github.com/roamplan/server/internal/metrics"
)

// Service sends notification emails through the configured provider.
type Service struct {
	config       config.EmailConfig
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
}

// planSharedData feeds the plan-shared notification template.
type planSharedData struct {
	RecipientName string
	SharedBy      string
	PlanTitle     string
	CurrentYear   int
}

const planSharedTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>A travel plan was shared with you</h2>
  <p>Hi {{.RecipientName}},</p>
  <p>{{.SharedBy}} shared the plan <strong>{{.PlanTitle}}</strong> with you.
  Sign in to see its itinerary.</p>
  <p style="color: #6b7280; font-size: 12px;">&copy; {{.CurrentYear}} RoamPlan</p>
</body>
</html>`

// NewService creates an email service. When cfg.Enabled is false the service
// still works but only logs instead of sending.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
		switch cfg.Provider {
		case "smtp":
			if cfg.SMTPHost == "" {
				return nil, fmt.Errorf("smtp provider selected but EMAIL_SMTP_HOST is empty")
			}
		case "resend":
			if cfg.ResendAPIKey == "" {
				return nil, fmt.Errorf("resend provider selected but EMAIL_RESEND_API_KEY is empty")
			}
		default:
			return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
		}
	}

	templates := template.Must(template.New("plan_shared").Parse(planSharedTemplate))

	svc := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Provider == "resend" && cfg.ResendAPIKey != "" {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

// NotifyPlanShared emails the share recipient.
func (s *Service) NotifyPlanShared(ctx context.Context, recipient users.User, planTitle, sharedBy string) error {
	if err := validateEmailAddress(recipient.Email); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", recipient.Email).
			Str("plan", planTitle).
			Str("shared_by", sharedBy).
			Msg("email service disabled, skipping share notification")
		return nil
	}

	name := recipient.Name
	if name == "" {
		name = "there"
	}
	data := planSharedData{
		RecipientName: name,
		SharedBy:      sharedBy,
		PlanTitle:     planTitle,
		CurrentYear:   time.Now().Year(),
	}
	htmlBody, err := s.renderTemplate("plan_shared", data)
	if err != nil {
		return fmt.Errorf("render share notification: %w", err)
	}

	subject := fmt.Sprintf("%s shared a travel plan with you", sharedBy)
	if err := s.send(ctx, recipient.Email, subject, htmlBody); err != nil {
		metrics.EmailsSentTotal.WithLabelValues(s.config.Provider, "error").Inc()
		return fmt.Errorf("send share notification: %w", err)
	}

	metrics.EmailsSentTotal.WithLabelValues(s.config.Provider, "success").Inc()
	s.logger.Info().
		Str("to", recipient.Email).
		Str("plan", planTitle).
		Msg("share notification sent")
	return nil
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	switch s.config.Provider {
	case "resend":
		return s.sendViaResend(ctx, to, subject, htmlBody)
	default:
		return s.sendViaSMTP(to, subject, htmlBody)
	}
}

// validateEmailAddress checks format and rejects header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}

	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}

	return nil
}

func (s *Service) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
