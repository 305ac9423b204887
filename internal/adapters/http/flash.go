package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"academy/internal/adapters/http/middleware"
	"academy/internal/application/workflow"
)

const flashCookieName = "academy_flash"

// setFlash queues notices for the next rendered page.
func setFlash(w http.ResponseWriter, notices ...workflow.Notice) {
	if len(notices) == 0 {
		return
	}
	raw, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   middleware.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// takeFlash returns and clears the queued notices.
func takeFlash(w http.ResponseWriter, r *http.Request) []workflow.Notice {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var notices []workflow.Notice
	if err := json.Unmarshal(raw, &notices); err != nil {
		return nil
	}
	return notices
}

func flashError(w http.ResponseWriter, msg string) {
	setFlash(w, workflow.Notice{Level: workflow.NoticeError, Message: msg})
}

func flashSuccess(w http.ResponseWriter, msg string) {
	setFlash(w, workflow.Notice{Level: workflow.NoticeSuccess, Message: msg})
}
