package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jobbase/job-board/internal/middleware"
	"github.com/jobbase/job-board/internal/server"
)

const maxBodyBytes = int64(1 << 20)

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// employerRoute wraps h so it only runs with a valid employer session
func employerRoute(svr server.Server, h func(w http.ResponseWriter, r *http.Request, id middleware.Identity)) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			id, ok := middleware.IdentityFromContext(r.Context())
			if !ok || id.ID == "" {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Unauthorized"})
				return
			}
			h(w, r, id)
		},
	)
}

type siteURL struct {
	protocol string
	host     string
}

func (s siteURL) of(path string) string {
	return s.protocol + s.host + path
}

func siteURLOf(svr server.Server) siteURL {
	cfg := svr.GetConfig()
	return siteURL{protocol: cfg.URLProtocol, host: cfg.SiteHost}
}
