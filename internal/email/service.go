// Package email sends outbound mail over SMTP.
package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	LinkBase string
}

// Service sends mail. With no SMTP host configured every send is a no-op
// error, which callers treat as best-effort.
type Service struct {
	config Config
	server string
	auth   smtp.Auth
}

// NewService creates an email Service.
func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
	}
}

// IsConfigured reports whether sending is possible.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendInvitationEmail mails a team invitation to an address.
func (s *Service) SendInvitationEmail(to, inviterName, teamName, inviteID string) error {
	subject := fmt.Sprintf("%s invited you to join %s", inviterName, teamName)
	body := fmt.Sprintf(
		"%s has invited you to join the team %q.\n\n"+
			"Open %s/invites to accept or reject the invitation.\n\n"+
			"The invitation expires in 7 days. (ref: %s)\n",
		inviterName, teamName, s.config.LinkBase, inviteID,
	)
	return s.send([]string{to}, subject, body)
}

func (s *Service) send(to []string, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		from,
		subject,
		body,
	))

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg)
}
