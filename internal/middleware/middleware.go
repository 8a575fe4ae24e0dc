package middleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

const (
	SessionName  = "employer_session"
	RoleEmployer = "employer"
)

type ctxKey int

const identityKey ctxKey = iota

func HTTPSMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" && r.Header.Get("X-Forwarded-Proto") != "https" {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func LoggingMiddleware(next http.Handler) http.Handler {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = ksuid.New().String()
		}
		w.Header().Set("X-Request-Id", reqID)
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info().
			Str("request_id", reqID).
			Str("Host", r.Host).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Str("x-forwarded-for", r.Header.Get("x-forwarded-for")).
			Dur("took", time.Since(start)).
			Msg("req")
	})
}

func HeadersMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" {
			// filter out HeadlessChrome user agent
			if strings.Contains(r.Header.Get("User-Agent"), "HeadlessChrome") {
				w.WriteHeader(http.StatusTeapot)
				return
			}
			w.Header().Set("Content-Security-Policy", "upgrade-insecure-requests")
			w.Header().Set("X-Frame-Options", "deny")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "origin")
		}
		next.ServeHTTP(w, r)
	})
}

// Identity is the caller resolved from the employer session
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

type EmployerJWT struct {
	EmployerID string `json:"employer_id"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	Role       string `json:"role"`
	jwt.StandardClaims
}

func (c EmployerJWT) Identity() Identity {
	return Identity{ID: c.EmployerID, Email: c.Email, Company: c.Company, Role: c.Role}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by EmployerAuthenticatedMiddleware
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

func EmployerAuthenticatedMiddleware(sessionStore sessions.Store, jwtKey []byte, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := GetEmployerFromJWT(r, sessionStore, jwtKey)
		if err != nil || claims.Role != RoleEmployer {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
	})
}

func MachineAuthenticatedMiddleware(machineToken string, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("x-machine-token")
		if token == "" || token != machineToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	})
}

func GetEmployerFromJWT(r *http.Request, sessionStore sessions.Store, jwtKey []byte) (*EmployerJWT, error) {
	sess, err := sessionStore.Get(r, SessionName)
	if err != nil {
		return nil, errors.New("could not find cookie")
	}
	tk, ok := sess.Values["jwt"].(string)
	if !ok {
		return nil, errors.New("could not find jwt in session")
	}
	token, err := jwt.ParseWithClaims(tk, &EmployerJWT{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token is invalid or expired")
	}
	claims, ok := token.Claims.(*EmployerJWT)
	if !ok || claims.EmployerID == "" {
		return nil, errors.New("could not convert jwt claims to EmployerJWT")
	}
	return claims, nil
}

// SaveEmployerSession signs the identity into a jwt and stores it in the session cookie
func SaveEmployerSession(w http.ResponseWriter, r *http.Request, sessionStore sessions.Store, jwtKey []byte, id Identity, maxAge time.Duration) error {
	// a cookie signed with a rotated key fails to decode but still yields a fresh session
	sess, err := sessionStore.Get(r, SessionName)
	if sess == nil {
		return err
	}
	now := time.Now()
	claims := EmployerJWT{
		EmployerID: id.ID,
		Email:      id.Email,
		Company:    id.Company,
		Role:       RoleEmployer,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(maxAge).Unix(),
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := tkn.SignedString(jwtKey)
	if err != nil {
		return err
	}
	sess.Values["jwt"] = ss
	if sess.Options == nil {
		sess.Options = &sessions.Options{Path: "/", HttpOnly: true}
	}
	sess.Options.MaxAge = int(maxAge.Seconds())
	return sess.Save(r, w)
}

func ClearEmployerSession(w http.ResponseWriter, r *http.Request, sessionStore sessions.Store) error {
	sess, err := sessionStore.Get(r, SessionName)
	if sess == nil {
		return err
	}
	delete(sess.Values, "jwt")
	if sess.Options == nil {
		sess.Options = &sessions.Options{Path: "/", HttpOnly: true}
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
