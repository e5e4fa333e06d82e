package auth

// AuthResponse is the envelope every auth operation answers with. Token is
// populated only for the OTP-verified reset-capability response; the
// access/refresh pair only for flows that conclude in full authentication.
type AuthResponse struct {
	Status       int    `json:"status"`
	Message      string `json:"message"`
	Role         string `json:"role,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Token        string `json:"token,omitempty"`
}

func NewAuthResponse(status int, message string) *AuthResponse {
	return &AuthResponse{Status: status, Message: message}
}

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Username  string `json:"userName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Password  string `json:"password" binding:"required,min=8"`
}

// LoginRequest identifies the account by username or phone, never both.
type LoginRequest struct {
	Username    string `json:"userName"`
	Phone       string `json:"phone"`
	Password    string `json:"password" binding:"required"`
	DeviceToken string `json:"deviceToken"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SocialLoginRequest struct {
	AppID       string `json:"appId" binding:"required"`
	DeviceToken string `json:"deviceToken"`
}

type VerifyAccountRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OneTimeCode string `json:"oneTimeCode" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ResendOTPRequest struct {
	Email    string `json:"email" binding:"required,email"`
	AuthType string `json:"authType" binding:"required,oneof=createAccount resetPassword"`
}

type ResetPasswordRequest struct {
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}
