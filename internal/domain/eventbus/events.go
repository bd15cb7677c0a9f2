package eventbus

// Auth event topics.
const (
	EventResetRequested  = "auth:reset_requested"
	EventPasswordChanged = "auth:password_changed"
)

// ResetRequestedEvent is published when a password-reset token was issued.
type ResetRequestedEvent struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
}

// PasswordChangedEvent is published after a successful password reset.
type PasswordChangedEvent struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
