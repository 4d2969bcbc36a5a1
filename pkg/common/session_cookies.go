package common

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const SessionCookie = "sid"

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionId,
		Domain:   strings.Split(strings.TrimPrefix(r.Host, "."), ":")[0],
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		MaxAge:   7200,
		Path:     "/",
	})
}

// HandleSessionCookie returns the caller's session id, issuing a new one when
// the cookie is missing or not a uuid. created reports a new id.
func HandleSessionCookie(w http.ResponseWriter, r *http.Request) (sessionId string, created bool) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value, false
		}
	}
	sessionId = uuid.NewString()
	setSessionCookie(w, r, sessionId)
	return sessionId, true
}
