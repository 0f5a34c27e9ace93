// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/devvibe-backend/internal/mail"

// MailQueueName is the durable queue carrying outgoing mail.
const MailQueueName = "mail.outbound"

// MailRequestedEvent is published when the API wants an email delivered.
// The consumer hands Message to the SMTP mailer.
type MailRequestedEvent struct {
	Message     mail.Message `json:"message"`
	Kind        string       `json:"kind"`
	RequestedAt string       `json:"requested_at"`
}
