package mail

import (
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Service sends transactional mail through Sendgrid. In stub mode (local
// development, tests) messages are logged instead of sent.
type Service struct {
	apiKey string
	from   string
	stub   bool
	log    *slog.Logger
}

// New creates a mail Service. stub disables outbound delivery.
func New(apiKey, from string, stub bool, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{apiKey: apiKey, from: from, stub: stub, log: log}
}

// SendWelcome greets a newly created account.
func (s *Service) SendWelcome(toEmail, toName string) error {
	subject := "Welcome to the Rep Dashboard"
	plain := fmt.Sprintf("Hi %s, your dashboard account is ready. Log in to see your onboarding track and this month's leaderboards.", toName)
	html := fmt.Sprintf(`
        <html>
        <body>
            <h2>Welcome aboard, %s!</h2>
            <p>Your dashboard account is ready.</p>
            <p>Log in to see your onboarding track, training modules and this month's leaderboards.</p>
        </body>
        </html>
    `, toName)

	return s.send(toEmail, toName, subject, plain, html)
}

func (s *Service) send(toEmail, toName, subject, plain, html string) error {
	if s.stub {
		s.log.Info("mail stub: suppressing delivery", "to", toEmail, "subject", subject)
		return nil
	}

	from := mail.NewEmail("Rep Dashboard", s.from)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	response, err := sendgrid.NewSendClient(s.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d - %s", response.StatusCode, response.Body)
	}
	return nil
}
