package email

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/roamplan/server/internal/config"
	"github.com/roamplan/server/internal/domain/users"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmailConfig
		wantErr string
	}{
		{
			name: "disabled service needs no provider config",
			cfg:  config.EmailConfig{Enabled: false},
		},
		{
			name: "smtp provider",
			cfg: config.EmailConfig{
				Enabled:  true,
				Provider: "smtp",
				From:     "trips@roamplan.test",
				SMTPHost: "mail.roamplan.test",
			},
		},
		{
			name: "resend provider",
			cfg: config.EmailConfig{
				Enabled:      true,
				Provider:     "resend",
				From:         "trips@roamplan.test",
				ResendAPIKey: "re_test_key",
			},
		},
		{
			name:    "enabled without sender",
			cfg:     config.EmailConfig{Enabled: true, Provider: "smtp", SMTPHost: "mail.roamplan.test"},
			wantErr: "invalid sender email",
		},
		{
			name:    "smtp without host",
			cfg:     config.EmailConfig{Enabled: true, Provider: "smtp", From: "trips@roamplan.test"},
			wantErr: "EMAIL_SMTP_HOST",
		},
		{
			name:    "resend without key",
			cfg:     config.EmailConfig{Enabled: true, Provider: "resend", From: "trips@roamplan.test"},
			wantErr: "EMAIL_RESEND_API_KEY",
		},
		{
			name:    "unknown provider",
			cfg:     config.EmailConfig{Enabled: true, Provider: "carrier-pigeon", From: "trips@roamplan.test"},
			wantErr: "unknown email provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.cfg, zerolog.Nop())
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewService() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewService() unexpected error: %v", err)
			}
			if svc == nil {
				t.Fatal("NewService() returned nil service")
			}
		})
	}
}

func TestNotifyPlanSharedDisabled(t *testing.T) {
	svc, err := NewService(config.EmailConfig{Enabled: false}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	recipient := users.User{Email: "finn@example.com", Name: "Finn"}
	if err := svc.NotifyPlanShared(context.Background(), recipient, "Italy", "Olive"); err != nil {
		t.Fatalf("NotifyPlanShared() with disabled service should be a no-op, got: %v", err)
	}
}

func TestNotifyPlanSharedRejectsBadRecipient(t *testing.T) {
	svc, err := NewService(config.EmailConfig{Enabled: false}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	recipient := users.User{Email: "not-an-address"}
	if err := svc.NotifyPlanShared(context.Background(), recipient, "Italy", "Olive"); err == nil {
		t.Fatal("NotifyPlanShared() should reject an invalid recipient address")
	}
}

func TestValidateEmailAddress(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "plain address", email: "finn@example.com"},
		{name: "named address", email: "Finn <finn@example.com>"},
		{name: "empty", email: "", wantErr: true},
		{name: "missing domain", email: "finn@", wantErr: true},
		{name: "header injection", email: "finn@example.com\r\nBcc: everyone@example.com", wantErr: true},
		{name: "just a name", email: "Finn", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEmailAddress(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEmailAddress(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestRenderPlanSharedTemplate(t *testing.T) {
	svc, err := NewService(config.EmailConfig{Enabled: false}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	html, err := svc.renderTemplate("plan_shared", planSharedData{
		RecipientName: "Finn",
		SharedBy:      "Olive",
		PlanTitle:     "<b>Italy</b>",
		CurrentYear:   2026,
	})
	if err != nil {
		t.Fatalf("renderTemplate() error: %v", err)
	}

	if !strings.Contains(html, "Hi Finn,") {
		t.Error("rendered template missing recipient greeting")
	}
	if !strings.Contains(html, "Olive shared the plan") {
		t.Error("rendered template missing sharer")
	}
	if strings.Contains(html, "<b>Italy</b>") {
		t.Error("plan title was not HTML-escaped")
	}
}
