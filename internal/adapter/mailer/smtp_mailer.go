package mailer

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers a composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer tells sellers about moderation outcomes.
type SMTPMailer struct {
	sender Sender
	from   string
	logger *logger.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, log *logger.Logger) *SMTPMailer {
	return newSMTPMailer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, log)
}

func newSMTPMailer(sender Sender, from string, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{sender: sender, from: from, logger: log.Named("SMTPMailer")}
}

func (s *SMTPMailer) NotifyModerated(ctx context.Context, l *domain.Listing) error {
	if l.SellerEmail == "" {
		s.logger.Debug("Seller has no email, skipping moderation notice", zap.String("listing_id", l.ID))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := composeModerated(s.from, l)
	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send moderation email",
			zap.String("listing_id", l.ID),
			zap.String("to", l.SellerEmail),
			zap.Error(err))
		return fmt.Errorf("send moderation email for listing %s: %w", l.ID, err)
	}
	s.logger.Info("Moderation email sent", zap.String("listing_id", l.ID), zap.String("status", string(l.Status)))
	return nil
}

func composeModerated(from string, l *domain.Listing) *gomail.Message {
	var subject, body string
	switch l.Status {
	case domain.StatusApproved:
		subject = "Your listing is live"
		body = fmt.Sprintf("Hello %s,\n\nYour listing %q has been approved and is now visible to buyers.\n", l.SellerName, l.Title)
	default:
		subject = "Your listing was not approved"
		body = fmt.Sprintf("Hello %s,\n\nYour listing %q was reviewed and rejected by a moderator.\n", l.SellerName, l.Title)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", l.SellerEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}
