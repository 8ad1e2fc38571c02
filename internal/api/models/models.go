// Package models defines the request and response bodies of the bookdrop API.
package models

import (
	"errors"
	"net/mail"
	"strings"
)

// Validation errors. These reject malformed input before it reaches a
// workflow.
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidName  = errors.New("name is required")
)

// DownloadRequestInput is the body of POST /download/request.
type DownloadRequestInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks the input fields.
func (in *DownloadRequestInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidName
	}
	return ValidateEmail(in.Email)
}

// ValidateEmail checks that the string is a bare RFC 5322 address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// Message is the body of every error response. Nothing beyond a short
// human-readable message is ever exposed.
type Message struct {
	Message string `json:"message"`
}

// Health is the body of the health/readiness endpoints.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
