package mailer

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/matcornic/hermes/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds configuration for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address; ReplyTo receives reader replies.
	From    string
	ReplyTo string

	// ProductName and ProductLink brand the generated email body.
	ProductName string
	ProductLink string
}

// SMTPConfigFromEnv creates an SMTPConfig from environment variables.
func SMTPConfigFromEnv() SMTPConfig {
	port, _ := strconv.Atoi(getEnvOrDefault("SMTP_PORT", "587"))

	return SMTPConfig{
		Host:        getEnvOrDefault("SMTP_HOST", "localhost"),
		Port:        port,
		Username:    os.Getenv("SMTP_USERNAME"),
		Password:    os.Getenv("SMTP_PASSWORD"),
		From:        getEnvOrDefault("MAIL_FROM", "ebook@bookdrop.dev"),
		ReplyTo:     getEnvOrDefault("MAIL_REPLY_TO", "noreply@bookdrop.dev"),
		ProductName: getEnvOrDefault("MAIL_PRODUCT_NAME", "bookdrop"),
		ProductLink: getEnvOrDefault("MAIL_PRODUCT_LINK", "https://books.bookdrop.dev"),
	}
}

// SMTPMailer composes HTML email with hermes and delivers it over SMTP. The
// SMTP dial is wrapped in a circuit breaker so a dead relay fails fast
// instead of holding worker invocations open.
type SMTPMailer struct {
	cfg     SMTPConfig
	hermes  hermes.Hermes
	breaker *gobreaker.CircuitBreaker[string]
	logger  zerolog.Logger
}

// NewSMTPMailer creates a new SMTP mailer.
func NewSMTPMailer(cfg SMTPConfig, logger zerolog.Logger) *SMTPMailer {
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "smtp",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &SMTPMailer{
		cfg: cfg,
		hermes: hermes.Hermes{
			Product: hermes.Product{
				Name: cfg.ProductName,
				Link: cfg.ProductLink,
			},
		},
		breaker: breaker,
		logger:  logger,
	}
}

// SendDownloadLink delivers the download email and returns a message id.
func (m *SMTPMailer) SendDownloadLink(_ context.Context, to, name, link string) (string, error) {
	body, err := m.ComposeDownloadLink(name, link)
	if err != nil {
		return "", err
	}

	messageID, err := m.breaker.Execute(func() (string, error) {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.cfg.From)
		msg.SetHeader("To", to)
		msg.SetHeader("Reply-To", m.cfg.ReplyTo)
		msg.SetHeader("Subject", fmt.Sprintf("%s - Download Link", m.cfg.ProductName))
		msg.SetBody("text/html", body)

		dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
		if err := dialer.DialAndSend(msg); err != nil {
			return "", fmt.Errorf("send mail to %s: %w", to, err)
		}
		return uuid.NewString(), nil
	})
	if err != nil {
		return "", err
	}

	m.logger.Info().
		Str("message_id", messageID).
		Str("email", to).
		Msg("download email sent")

	return messageID, nil
}

// ComposeDownloadLink renders the HTML body of the download email.
func (m *SMTPMailer) ComposeDownloadLink(name, link string) (string, error) {
	email := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				fmt.Sprintf("Thank you for requesting a copy of %s.", m.cfg.ProductName),
			},
			Actions: []hermes.Action{
				{
					Instructions: "The link is valid for 48 hours and can be used once.",
					Button: hermes.Button{
						Color: "#22BC66",
						Text:  "Download your copy",
						Link:  link,
					},
				},
			},
			Outros: []string{
				"If you did not request this ebook, you can safely ignore this email.",
			},
		},
	}

	body, err := m.hermes.GenerateHTML(email)
	if err != nil {
		return "", fmt.Errorf("generate email body: %w", err)
	}
	return body, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Ensure SMTPMailer implements Mailer interface.
var _ Mailer = (*SMTPMailer)(nil)
