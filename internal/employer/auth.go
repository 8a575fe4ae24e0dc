package employer

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jobbase/job-board/internal/email"
	"github.com/jobbase/job-board/internal/template"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type Store interface {
	GetByEmail(ctx context.Context, email string) (Employer, error)
	SaveOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	VerifyOTP(ctx context.Context, email, code string, now time.Time) (VerifyStatus, error)
	CompleteSignup(ctx context.Context, rq SignupRq, passwordHash string) (SignupStatus, error)
}

type Mailer interface {
	SendHTMLEmail(to email.Address, subject, html string) error
}

type Renderer interface {
	RenderEmail(name string, data interface{}) (string, error)
}

// Authenticator runs the employer signup and login flows
type Authenticator struct {
	store      Store
	mailer     Mailer
	renderer   Renderer
	siteName   string
	otpTTL     time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthenticator(store Store, mailer Mailer, renderer Renderer, siteName string, otpTTL time.Duration, bcryptCost int) Authenticator {
	return Authenticator{
		store:      store,
		mailer:     mailer,
		renderer:   renderer,
		siteName:   siteName,
		otpTTL:     otpTTL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// SendOTP stores a fresh 6 digit code for the email and mails it
func (a Authenticator) SendOTP(ctx context.Context, to string) error {
	code, err := newOTP()
	if err != nil {
		return errors.Wrap(err, "unable to generate otp")
	}
	expiresAt := a.now().Add(a.otpTTL)
	if err := a.store.SaveOTP(ctx, to, code, expiresAt); err != nil {
		return errors.Wrap(err, "unable to save otp")
	}
	body, err := a.renderer.RenderEmail(template.EmailOTP, map[string]interface{}{
		"SiteName":  a.siteName,
		"Code":      code,
		"ExpiresAt": expiresAt,
	})
	if err != nil {
		return errors.Wrap(err, "unable to render otp email")
	}
	if err := a.mailer.SendHTMLEmail(email.Address{Email: NormaliseEmail(to)}, "Your Verification Code", body); err != nil {
		return errors.Wrap(&DeliveryError{Err: err}, "unable to send otp email")
	}
	return nil
}

func (a Authenticator) VerifyOTP(ctx context.Context, email, code string) (VerifyStatus, error) {
	return a.store.VerifyOTP(ctx, email, code, a.now())
}

func (a Authenticator) Signup(ctx context.Context, rq SignupRq) (SignupStatus, error) {
	password := strings.TrimSpace(rq.Password)
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "unable to hash password")
	}
	return a.store.CompleteSignup(ctx, rq, string(hash))
}

// Login checks the password before the account state so unverified or unapproved
// accounts are only reported to someone who knows the password
func (a Authenticator) Login(ctx context.Context, email, password string) (Employer, error) {
	e, err := a.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Employer{}, ErrInvalidCredentials
	}
	if err != nil {
		return Employer{}, err
	}
	if e.PasswordHash == "" {
		return Employer{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return Employer{}, ErrInvalidCredentials
	}
	if !e.IsEmailVerified {
		return Employer{}, ErrNotVerified
	}
	if !e.IsApproved {
		return Employer{}, ErrNotApproved
	}
	return e, nil
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
