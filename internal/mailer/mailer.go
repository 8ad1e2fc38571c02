// Package mailer composes and delivers transactional email for the book
// funnel.
package mailer

import "context"

// Mailer sends the download-link email to a reader.
type Mailer interface {
	// SendDownloadLink delivers the email carrying the one-time download
	// link and returns a message id.
	SendDownloadLink(ctx context.Context, to, name, link string) (string, error)
}
