package employer

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jobbase/job-board/internal/email"
	"github.com/jobbase/job-board/internal/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	employers map[string]Employer
	otpCode   string
	otpExpiry time.Time
	signup    SignupRq
	hash      string
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (Employer, error) {
	e, ok := f.employers[NormaliseEmail(email)]
	if !ok {
		return Employer{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) SaveOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	f.otpCode, f.otpExpiry = code, expiresAt
	return nil
}

func (f *fakeStore) VerifyOTP(ctx context.Context, email, code string, now time.Time) (VerifyStatus, error) {
	if code != f.otpCode {
		return VerifyInvalidCode, nil
	}
	return VerifySuccess, nil
}

func (f *fakeStore) CompleteSignup(ctx context.Context, rq SignupRq, passwordHash string) (SignupStatus, error) {
	f.signup, f.hash = rq, passwordHash
	return SignupOK, nil
}

type fakeMailer struct {
	to      email.Address
	subject string
	html    string
	err     error
}

func (f *fakeMailer) SendHTMLEmail(to email.Address, subject, html string) error {
	f.to, f.subject, f.html = to, subject, html
	return f.err
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestSendOTP(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	a := NewAuthenticator(store, mailer, template.NewTemplate(), "JobBase", 10*time.Minute, bcrypt.MinCost)
	fixed := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	require.NoError(t, a.SendOTP(context.Background(), " HR@Acme.test "))

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), store.otpCode)
	assert.Equal(t, fixed.Add(10*time.Minute), store.otpExpiry)
	assert.Equal(t, "hr@acme.test", mailer.to.Email)
	assert.Contains(t, mailer.html, store.otpCode)

	status, err := a.VerifyOTP(context.Background(), "hr@acme.test", store.otpCode)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)
}

func TestSendOTPDeliveryFailure(t *testing.T) {
	store := &fakeStore{}
	a := NewAuthenticator(store, &fakeMailer{err: errors.New("sendgrid: 401")}, template.NewTemplate(), "JobBase", time.Minute, bcrypt.MinCost)

	err := a.SendOTP(context.Background(), "hr@acme.test")
	var delivery *DeliveryError
	require.True(t, errors.As(err, &delivery))
	assert.NotEmpty(t, store.otpCode, "the code is stored before the email goes out")
}

func TestSignup(t *testing.T) {
	store := &fakeStore{}
	a := NewAuthenticator(store, &fakeMailer{}, template.NewTemplate(), "JobBase", time.Minute, bcrypt.MinCost)

	_, err := a.Signup(context.Background(), SignupRq{Email: "hr@acme.test", Password: " 12345 "})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	status, err := a.Signup(context.Background(), SignupRq{Email: "hr@acme.test", Password: "s3cret!", Name: "Grace", CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, SignupOK, status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.hash), []byte("s3cret!")))
}

func TestLogin(t *testing.T) {
	store := &fakeStore{employers: map[string]Employer{
		"ok@acme.test":         {ID: "e1", Email: "ok@acme.test", PasswordHash: hash(t, "s3cret!"), IsEmailVerified: true, IsApproved: true},
		"unverified@acme.test": {ID: "e2", PasswordHash: hash(t, "s3cret!"), IsApproved: true},
		"pending@acme.test":    {ID: "e3", PasswordHash: hash(t, "s3cret!"), IsEmailVerified: true},
		"nopassword@acme.test": {ID: "e4", IsEmailVerified: true, IsApproved: true},
	}}
	a := NewAuthenticator(store, &fakeMailer{}, template.NewTemplate(), "JobBase", time.Minute, bcrypt.MinCost)
	ctx := context.Background()

	e, err := a.Login(ctx, "OK@acme.test", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "e1", e.ID)

	_, err = a.Login(ctx, "ok@acme.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "nobody@acme.test", "s3cret!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "nopassword@acme.test", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "unverified@acme.test", "s3cret!")
	assert.ErrorIs(t, err, ErrNotVerified)
	_, err = a.Login(ctx, "pending@acme.test", "s3cret!")
	assert.ErrorIs(t, err, ErrNotApproved)
	_, err = a.Login(ctx, "unverified@acme.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "account state is not revealed without the password")
}
