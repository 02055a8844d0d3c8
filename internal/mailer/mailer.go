package mailer

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
	"gopkg.in/gomail.v2"
)

// SMTPNotifier sends best-effort notification emails over SMTP. Callers are
// permitted to ignore the returned error; delivery failure must never fail
// the operation that triggered it.
type SMTPNotifier struct {
	host     string
	port     int
	from     string
	password string
	to       string
}

// NewSMTPNotifier configures the notifier. to is the notification relay
// address; the relay resolves the landlord recipient, user data does not live
// in this service.
func NewSMTPNotifier(host string, port int, from, password, to string) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, password: password, to: to}
}

func reviewBody(listingID string, status domain.VerificationStatus, notes string) string {
	body := fmt.Sprintf("The ownership verification for listing %s has been reviewed. New status: %s.", listingID, status)
	if notes != "" {
		body += "\n\nReviewer notes: " + notes
	}
	return body
}

func (n *SMTPNotifier) SendVerificationReviewed(listingID string, status domain.VerificationStatus, notes string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", "Listing Verification Reviewed")
	m.SetBody("text/plain", reviewBody(listingID, status, notes))

	d := gomail.NewDialer(n.host, n.port, n.from, n.password)
	return d.DialAndSend(m)
}
