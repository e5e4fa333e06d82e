// internal/service/auth/email.go
package auth

import (
	"context"
	"fmt"

	"whispr-service/internal/domain/user"
	"whispr-service/internal/service/email"

	"go.uber.org/zap"
)

// EmailHelper renders and dispatches authentication emails. Every send
// runs in its own goroutine; failures are logged and never surfaced to
// the flow that triggered them.
type EmailHelper struct {
	sender *email.Sender
	logger *zap.Logger
}

func NewEmailHelper(sender *email.Sender, logger *zap.Logger) *EmailHelper {
	return &EmailHelper{sender: sender, logger: logger}
}

func (h *EmailHelper) otpEmail(name, code string, authType user.AuthType) (string, string) {
	subject := "Your Whispr Verification Code"
	intro := "Use the code below to verify your account."
	if authType == user.AuthTypeResetPassword {
		subject = "Your Whispr Password Reset Code"
		intro = "Use the code below to continue resetting your password."
	}

	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>%s</p>
		<p class="code">%s</p>
		<p>This code expires in 5 minutes.</p>
		<p>If you did not request this code, you can safely ignore this email.</p>
	`, name, intro, code)

	return subject, body
}

// SendOTP dispatches a one-time code asynchronously.
func (h *EmailHelper) SendOTP(ctx context.Context, to, name, code string, authType user.AuthType) {
	if to == "" {
		return
	}
	go func() {
		subject, body := h.otpEmail(name, code, authType)
		if err := h.sender.Send(to, subject, body); err != nil {
			h.logger.Error("failed to send otp email",
				zap.String("email", to),
				zap.Error(err),
			)
			return
		}
		h.logger.Info("otp email sent", zap.String("email", to))
	}()
}

// SendPasswordChanged notifies the account owner of a password change.
func (h *EmailHelper) SendPasswordChanged(ctx context.Context, to, name string) {
	if to == "" {
		return
	}
	go func() {
		subject := "Your Whispr Password Was Changed"
		body := fmt.Sprintf(`
			<h2>Hello %s,</h2>
			<p>Your password has been changed successfully.</p>
			<p>If you did not make this change, please reset your password immediately.</p>
		`, name)
		if err := h.sender.Send(to, subject, body); err != nil {
			h.logger.Error("failed to send password changed email",
				zap.String("email", to),
				zap.Error(err),
			)
			return
		}
		h.logger.Info("password changed email sent", zap.String("email", to))
	}()
}
