// Package id generates record identifiers and public share codes.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// EventCodeAlphabet is used for event-level (legacy) share codes.
	EventCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// EventCodeLength is the length of event share codes.
	EventCodeLength = 8

	// InvitationCodeAlphabet drops characters that are easy to misread (I, O, 0, 1).
	InvitationCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// InvitationCodeLength is the length of invitation share codes.
	InvitationCodeLength = 10
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "evt-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// EventCode returns a new uppercase share code for an event.
func EventCode() (string, error) {
	code, err := gonanoid.Generate(EventCodeAlphabet, EventCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate event code: %w", err)
	}
	return code, nil
}

// InvitationCode returns a new uppercase share code for an invitation.
func InvitationCode() (string, error) {
	code, err := gonanoid.Generate(InvitationCodeAlphabet, InvitationCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate invitation code: %w", err)
	}
	return code, nil
}
