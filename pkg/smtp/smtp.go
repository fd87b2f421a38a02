package smtp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"

	"github.com/vlasover/drive-events-bot/pkg/logger"
)

// Client is the outgoing mail client.
type Client struct {
	dialer *gomail.Dialer
}

func NewClient(dialer *gomail.Dialer) *Client {
	return &Client{dialer: dialer}
}

// SendWelcomeEmail notifies a newly approved member at the address they
// submitted during registration. Failures are logged, never surfaced to the
// approving admin: email is best-effort.
func (c *Client) SendWelcomeEmail(to string, fullName string) {
	msg := gomail.NewMessage()

	domain := viper.GetString("service.smtp.domain")

	msg.SetHeader("Message-ID", generateMessageID(domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", viper.GetString("service.smtp.email"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Workspace access approved")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour registration was approved. You can now create event folders and upload files through the bot.",
		fullName,
	))

	if err := c.dialer.DialAndSend(msg); err != nil {
		logger.Log.Errorf("failed to send welcome email to %s: %v", to, err)
		return
	}

	logger.Log.Infof("welcome email sent to %s", to)
}

func generateMessageID(domain string) string {
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}
