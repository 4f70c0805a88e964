package mail

import (
	"fmt"
	"net/url"
)

// ActionLink builds the emailed link for an out-of-band action code.
func ActionLink(baseURL, mode, code string) string {
	q := url.Values{}
	q.Set("mode", mode)
	q.Set("oobCode", code)
	return fmt.Sprintf("%s/auth/action?%s", baseURL, q.Encode())
}

// VerificationMessage builds the email asking the user to confirm their
// address.
func VerificationMessage(to, link string) *Message {
	return &Message{
		To:      to,
		Subject: "Verify your TruthCapture email",
		Body: fmt.Sprintf(
			"Welcome to TruthCapture!\n\n"+
				"Please confirm your email address by opening the link below:\n\n%s\n\n"+
				"If you did not create this account, you can ignore this email.\n",
			link,
		),
	}
}

// ResetMessage builds the password reset email.
func ResetMessage(to, link string) *Message {
	return &Message{
		To:      to,
		Subject: "Reset your TruthCapture password",
		Body: fmt.Sprintf(
			"We received a request to reset your password.\n\n"+
				"Open the link below to choose a new one:\n\n%s\n\n"+
				"This link expires soon and can only be used once. If you did not "+
				"request a reset, you can ignore this email.\n",
			link,
		),
	}
}
