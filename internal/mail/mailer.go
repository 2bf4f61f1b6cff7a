package mail

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Mailer delivers account emails. Actual SMTP delivery lives outside this
// repository; the server only depends on this contract.
type Mailer interface {
	SendVerificationEmail(to, token string) error
}

// LogMailer writes the verification link to the log instead of sending it.
// Used in dev and as the default when no real mailer is wired in.
type LogMailer struct {
	BaseURL string
}

func (m LogMailer) SendVerificationEmail(to, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email/%s", m.BaseURL, token)
	log.Info().Str("to", to).Str("link", link).Msg("verification email")
	return nil
}
