package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// sendViaResend delivers one message through the Resend API. A rate-limit
// response is surfaced to the caller with the reset window; there is no
// retry here because share notifications are fire-and-forget upstream.
func (s *Service) sendViaResend(ctx context.Context, to, subject, htmlBody string) error {
	if s.resendClient == nil {
		return fmt.Errorf("resend client not configured")
	}

	req := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, req)
	if err != nil {
		var limitErr *resend.RateLimitError
		if errors.As(err, &limitErr) {
			s.logger.Warn().
				Str("limit", limitErr.Limit).
				Str("remaining", limitErr.Remaining).
				Str("reset", limitErr.Reset).
				Msg("resend rate limited")
			return fmt.Errorf("resend rate limited (limit %s, reset %ss): %w",
				limitErr.Limit, limitErr.Reset, err)
		}
		return fmt.Errorf("resend send: %w", err)
	}

	s.logger.Info().
		Str("provider_id", sent.Id).
		Str("to", to).
		Msg("email delivered")
	return nil
}
