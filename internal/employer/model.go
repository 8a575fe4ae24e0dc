package employer

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("employer not found")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrNotVerified        = errors.New("Please verify your email address first.")
	ErrNotApproved        = errors.New("Your account is pending approval by our team.")
	ErrNothingToUpdate    = errors.New("No fields provided for update.")
	ErrPasswordTooShort   = errors.New("Password must be at least 6 characters")
)

const MinPasswordLength = 6

// DeliveryError is returned when the code was stored but the email provider refused it
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return "Failed to send email: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type VerifyStatus string

const (
	VerifySuccess      VerifyStatus = "SUCCESS"
	VerifyInvalidCode  VerifyStatus = "INVALID_CODE"
	VerifyExpired      VerifyStatus = "EXPIRED"
	VerifyUserNotFound VerifyStatus = "USER_NOT_FOUND"
)

type SignupStatus string

const (
	SignupOK              SignupStatus = "OK"
	SignupUserNotFound    SignupStatus = "USER_NOT_FOUND"
	SignupNotVerified     SignupStatus = "NOT_VERIFIED"
	SignupAlreadyComplete SignupStatus = "SIGNUP_ALREADY_COMPLETE"
)

type Employer struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	CompanyName     string    `json:"company_name"`
	Position        string    `json:"position"`
	PasswordHash    string    `json:"-"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsApproved      bool      `json:"is_approved"`
	CompanyID       *string   `json:"company_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Profile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Position    string `json:"position"`
}

type ProfileRqUpdate struct {
	Name        *string `json:"name"`
	CompanyName *string `json:"company_name"`
	Position    *string `json:"position"`
}

func (p ProfileRqUpdate) Empty() bool {
	return p.Name == nil && p.CompanyName == nil && p.Position == nil
}

type SignupRq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Position    string `json:"position"`
}

type LoginRq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OTPRq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
