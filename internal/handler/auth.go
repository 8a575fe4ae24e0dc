package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jobbase/job-board/internal/employer"
	"github.com/jobbase/job-board/internal/middleware"
	"github.com/jobbase/job-board/internal/server"
)

type employerAuth interface {
	SendOTP(ctx context.Context, to string) error
	VerifyOTP(ctx context.Context, email, code string) (employer.VerifyStatus, error)
	Signup(ctx context.Context, rq employer.SignupRq) (employer.SignupStatus, error)
	Login(ctx context.Context, email, password string) (employer.Employer, error)
}

type employerReader interface {
	GetByID(ctx context.Context, id string) (employer.Employer, error)
}

func SendOTPHandler(svr server.Server, auth employerAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := employer.OTPRq{}
		if err := decodeJSON(r, &rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
			return
		}
		addr := employer.NormaliseEmail(rq.Email)
		if addr == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Email is required"})
			return
		}
		if !svr.IsEmail(addr) {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid email address"})
			return
		}
		err := auth.SendOTP(r.Context(), addr)
		var delivery *employer.DeliveryError
		if errors.As(err, &delivery) {
			svr.Log(err, fmt.Sprintf("unable to deliver otp to %s", addr))
			svr.JSON(w, http.StatusBadGateway, map[string]interface{}{"error": "Failed to send email"})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to issue otp for %s", addr))
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Database Error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "OTP sent successfully"})
	}
}

func CheckOTPHandler(svr server.Server, auth employerAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := employer.OTPRq{}
		if err := decodeJSON(r, &rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(rq.Email) == "" || strings.TrimSpace(rq.OTP) == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Email and OTP are required"})
			return
		}
		status, err := auth.VerifyOTP(r.Context(), rq.Email, strings.TrimSpace(rq.OTP))
		if err != nil {
			svr.Log(err, "unable to verify otp")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Database Error"})
			return
		}
		switch status {
		case employer.VerifySuccess:
			svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Email verified successfully"})
		case employer.VerifyInvalidCode:
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid verification code"})
		case employer.VerifyExpired:
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Verification code has expired"})
		case employer.VerifyUserNotFound:
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"error": "User not found"})
		default:
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Unknown verification error"})
		}
	}
}

func EmployerSignupHandler(svr server.Server, auth employerAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := employer.SignupRq{}
		if err := decodeJSON(r, &rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
			return
		}
		rq.Email = employer.NormaliseEmail(rq.Email)
		rq.Name = strings.TrimSpace(rq.Name)
		rq.CompanyName = strings.TrimSpace(rq.CompanyName)
		rq.Position = strings.TrimSpace(rq.Position)
		if rq.Email == "" || rq.Password == "" || rq.Name == "" || rq.CompanyName == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Missing required fields"})
			return
		}
		status, err := auth.Signup(r.Context(), rq)
		if errors.Is(err, employer.ErrPasswordTooShort) {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to complete signup for %s", rq.Email))
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Database Error"})
			return
		}
		switch status {
		case employer.SignupUserNotFound:
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"error": "User not found. Please restart signup."})
		case employer.SignupAlreadyComplete:
			svr.JSON(w, http.StatusConflict, map[string]interface{}{"error": "Account already exists. Please log in."})
		case employer.SignupNotVerified:
			svr.JSON(w, http.StatusForbidden, map[string]interface{}{"error": "Email must be verified first."})
		default:
			svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Account created, pending approval"})
		}
	}
}

func EmployerLoginHandler(svr server.Server, auth employerAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := employer.LoginRq{}
		if err := decodeJSON(r, &rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(rq.Email) == "" || rq.Password == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Email and password are required"})
			return
		}
		e, err := auth.Login(r.Context(), rq.Email, rq.Password)
		switch {
		case errors.Is(err, employer.ErrInvalidCredentials):
			svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"error": err.Error()})
			return
		case errors.Is(err, employer.ErrNotVerified), errors.Is(err, employer.ErrNotApproved):
			svr.JSON(w, http.StatusForbidden, map[string]interface{}{"error": err.Error()})
			return
		case err != nil:
			svr.Log(err, "unable to log employer in")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Internal Server Error"})
			return
		}
		id := middleware.Identity{ID: e.ID, Email: e.Email, Company: e.CompanyName, Role: middleware.RoleEmployer}
		if err := middleware.SaveEmployerSession(w, r, svr.SessionStore, svr.GetJWTSigningKey(), id, svr.GetConfig().SessionMaxAge); err != nil {
			svr.Log(err, "unable to save employer session")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Internal Server Error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Login successful", "user": e})
	}
}

func EmployerLogoutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := middleware.ClearEmployerSession(w, r, svr.SessionStore); err != nil {
			svr.Log(err, "unable to clear employer session")
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Logout successful"})
	}
}

// EmployerMeHandler returns who is signed in, falling back to the session claims when the record cannot be read
func EmployerMeHandler(svr server.Server, employers employerReader) http.HandlerFunc {
	return employerRoute(svr, func(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
		data := map[string]interface{}{
			"id":      id.ID,
			"name":    "",
			"email":   id.Email,
			"company": id.Company,
			"role":    id.Role,
		}
		e, err := employers.GetByID(r.Context(), id.ID)
		if errors.Is(err, employer.ErrNotFound) {
			svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Not authenticated"})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to read employer %s", id.ID))
		} else {
			data["name"] = e.Name
			data["email"] = e.Email
			data["company"] = e.CompanyName
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"data": data})
	})
}
