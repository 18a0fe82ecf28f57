package mailer

import (
	"fmt"

	"github.com/miekg/dns"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/sladedevelops/email-microwave/internal/config"
	"github.com/sladedevelops/email-microwave/internal/models"
	"github.com/sladedevelops/email-microwave/internal/utils"
)

const defaultResolver = "8.8.8.8:53"

// Service delivers stored emails through the configured SMTP relay.
type Service struct {
	host     string
	port     int
	resolver string
	log      *zap.Logger
}

func NewService(cfg config.SMTPConfig, log *zap.Logger) *Service {
	return &Service{
		host:     cfg.Host,
		port:     cfg.Port,
		resolver: defaultResolver,
		log:      log,
	}
}

// Send delivers one email. The recipient domain must resolve to at
// least one mail exchanger before a dial is attempted.
func (s *Service) Send(email models.Email) error {
	domain := utils.GetDomainFromEmail(email.ToEmail)
	if domain == "" {
		return fmt.Errorf("invalid recipient address %q", email.ToEmail)
	}
	if err := s.checkMX(domain); err != nil {
		return fmt.Errorf("recipient domain %s: %w", domain, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", email.FromEmail)
	m.SetHeader("To", email.ToEmail)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Content)

	d := gomail.NewDialer(s.host, s.port, "", "")
	if err := d.DialAndSend(m); err != nil {
		s.log.Error("smtp send failed",
			zap.String("email_id", email.ID), zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// checkMX queries the resolver directly for MX records.
func (s *Service) checkMX(domain string) error {
	client := &dns.Client{}
	message := new(dns.Msg)
	message.SetQuestion(dns.Fqdn(domain), dns.TypeMX)

	response, _, err := client.Exchange(message, s.resolver)
	if err != nil {
		return fmt.Errorf("mx lookup: %w", err)
	}
	for _, answer := range response.Answer {
		if _, ok := answer.(*dns.MX); ok {
			return nil
		}
	}
	return fmt.Errorf("no mail exchanger found")
}
