// Package mail sends outgoing email, either directly over SMTP or by
// handing messages to the RabbitMQ mail queue.
package mail

import (
	"context"
	"fmt"
)

// Message is a plain-text email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers a message.  A nil error means the transport accepted it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResetSubject is the subject line of password reset emails.
const ResetSubject = "Password Reset Request"

// ResetEmail composes the password reset email pointing at resetURL.
func ResetEmail(from, to, resetURL string) Message {
	body := fmt.Sprintf(`Hello,

You requested a password reset for your DevVibe Pro account.

Click the link below to reset your password:
%s

If you didn't request this, please ignore this email.

Best regards,
DevVibe Pro Team
`, resetURL)
	return Message{From: from, To: to, Subject: ResetSubject, Body: body}
}
