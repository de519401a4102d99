package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/tollsetu/fastag-portal/internal/pkg/env"
)

// defaultSender derives a no-reply address from the portal's public domain
// when SMTP_SENDER is not configured.
func defaultSender() string {
	host := "localhost"
	if domain := env.GetEnv("PUBLIC_DOMAIN", ""); domain != "" {
		if u, err := url.Parse(domain); err == nil && u.Host != "" {
			host = u.Host
		} else {
			host = strings.TrimPrefix(domain, "www.")
		}
	}
	return "no-reply@" + host
}

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")

	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = defaultSender()
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}
	fromName := env.GetEnv("SMTP_FROM_NAME", "FASTag Portal")

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", fromName, sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	err := smtp.SendMail(addr, auth, sender, []string{to}, []byte(msg.String()))
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}
