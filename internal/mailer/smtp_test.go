package mailer_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdrop/bookdrop/internal/mailer"
)

func newTestMailer() *mailer.SMTPMailer {
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:        "localhost",
		Port:        587,
		From:        "ebook@example.com",
		ReplyTo:     "noreply@example.com",
		ProductName: "bookdrop",
		ProductLink: "https://books.example.com",
	}, zerolog.Nop())
}

func TestComposeDownloadLink_EmbedsLinkAndName(t *testing.T) {
	m := newTestMailer()

	body, err := m.ComposeDownloadLink("Reader", "https://books.example.com/download/tok123")
	require.NoError(t, err)

	assert.Contains(t, body, "Reader")
	assert.Contains(t, body, "https://books.example.com/download/tok123")
	assert.Contains(t, body, "Download your copy")
	assert.Contains(t, body, "valid for 48 hours")
}

func TestComposeDownloadLink_BrandsWithProduct(t *testing.T) {
	m := newTestMailer()

	body, err := m.ComposeDownloadLink("Reader", "https://books.example.com/download/tok123")
	require.NoError(t, err)

	assert.Contains(t, body, "bookdrop")
}
