// Package notify implements the outbound email collaborator. Delivery is
// fire-and-forget: handlers run off the event bus and failures are logged,
// never propagated into the auth flows.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"melodix-server-go/internal/domain/auth/model"
	"melodix-server-go/internal/domain/eventbus"
)

// Config captures SMTP delivery options. Disabled notifiers log instead of
// sending, which keeps development setups mail-server free.
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	ResetURL string
}

// EmailNotifier delivers password-reset and password-changed mail.
type EmailNotifier struct {
	cfg    Config
	logger model.Logger
}

// NewEmailNotifier builds the notifier.
func NewEmailNotifier(cfg Config, logger model.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

// Register subscribes the notifier's handlers on the event bus. Handlers run
// asynchronously so slow SMTP servers never stall a request flow.
func (n *EmailNotifier) Register(bus eventbus.Bus) error {
	if err := bus.SubscribeAsync(eventbus.EventResetRequested, n.handleResetRequested, false); err != nil {
		return err
	}
	return bus.SubscribeAsync(eventbus.EventPasswordChanged, n.handlePasswordChanged, false)
}

func (n *EmailNotifier) handleResetRequested(event eventbus.ResetRequestedEvent) {
	n.NotifyReset(event.Email, event.Token, event.DisplayName)
}

func (n *EmailNotifier) handlePasswordChanged(event eventbus.PasswordChangedEvent) {
	n.NotifyPasswordChanged(event.Email, event.DisplayName)
}

// NotifyReset sends the reset link. Failures are logged only.
func (n *EmailNotifier) NotifyReset(email, token, displayName string) {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nA password reset was requested for your account.\r\n"+
			"Use the link below within the next hour:\r\n\r\n%s?token=%s\r\n\r\n"+
			"If you did not request this, you can ignore this message.\r\n",
		displayName, n.cfg.ResetURL, token,
	)
	if err := n.send(email, "Reset your password", body); err != nil {
		n.logger.Error("failed to send reset email to %s: %v", email, err)
		return
	}
	n.logger.Info("reset email sent to %s", email)
}

// NotifyPasswordChanged sends the password-changed notice. Failures are logged only.
func (n *EmailNotifier) NotifyPasswordChanged(email, displayName string) {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour password was just changed.\r\n"+
			"If this was not you, reset your password immediately.\r\n",
		displayName,
	)
	if err := n.send(email, "Your password was changed", body); err != nil {
		n.logger.Error("failed to send password-changed email to %s: %v", email, err)
		return
	}
	n.logger.Info("password-changed email sent to %s", email)
}

func (n *EmailNotifier) send(to, subject, body string) error {
	if !n.cfg.Enabled {
		n.logger.Debug("mail disabled, skipping %q to %s", subject, to)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	return smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg))
}
