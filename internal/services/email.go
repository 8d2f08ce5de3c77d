package services

import (
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"
	"time"
)

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
}

func NewEmailService(host, port, user, pass, from, frontendURL string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
	}
}

const emailLayout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #0f766e; padding: 24px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 22px;">LMS</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">%s</h2>
      %s
    </div>
  </div>
</body>
</html>`

// VerificationCodeMessage renders the signup confirmation email.
func (s *EmailService) VerificationCodeMessage(code string, ttl time.Duration) (string, string) {
	inner := fmt.Sprintf(`<p style="color: #64748b; font-size: 14px;">Enter this code to verify your email address:</p>
      <p style="font-size: 32px; letter-spacing: 8px; font-weight: 700; color: #0f766e;">%s</p>
      <p style="color: #94a3b8; font-size: 12px;">This code expires in %d minutes.</p>`, code, int(ttl.Minutes()))
	return "Your LMS verification code", fmt.Sprintf(emailLayout, "Verify Your Email", inner)
}

// NotificationMessage renders an in-app notification for email delivery.
func (s *EmailService) NotificationMessage(title, body string, link *string) (string, string) {
	inner := fmt.Sprintf(`<p style="color: #334155; font-size: 14px; line-height: 1.6;">%s</p>`,
		strings.ReplaceAll(html.EscapeString(body), "\n", "<br>"))
	if link != nil && *link != "" {
		href := *link
		if strings.HasPrefix(href, "/") {
			href = strings.TrimRight(s.frontendURL, "/") + href
		}
		inner += fmt.Sprintf(`
      <a href="%s" style="display: inline-block; background: #0f766e; color: white; text-decoration: none; padding: 10px 24px; border-radius: 8px;">Open</a>`,
			html.EscapeString(href))
	}
	return title, fmt.Sprintf(emailLayout, html.EscapeString(title), inner)
}

func (s *EmailService) Send(to, subject, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}
