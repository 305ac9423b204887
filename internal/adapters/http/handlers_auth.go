package web

import (
	"errors"
	"net/http"

	"academy/internal/adapters/http/middleware"
	"academy/internal/application/orchestrators"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if services.DB != nil {
		if err := services.DB.Ping(r.Context()); err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleLoginForm handles GET /login
func handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", "Login", map[string]any{"Username": ""})
}

// handleLogin handles POST /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input := orchestrators.LoginInput{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	deps := orchestrators.LoginDeps{
		Auth:     services.API,
		Profiles: services.API,
		Sessions: services.Sessions,
		Now:      services.Now,
		TTL:      services.SessionTTL,
	}

	sess, err := orchestrators.ExecuteLogin(r.Context(), input, deps)
	if err != nil {
		var loginErr *orchestrators.LoginError
		if !errors.As(err, &loginErr) && !errors.Is(err, orchestrators.ErrCredentialsRequired) {
			internalError(w, r, err)
			return
		}
		renderStatus(w, r, http.StatusUnauthorized, "login.html", "Login", map[string]any{
			"Username": input.Username,
			"Error":    err.Error(),
		})
		return
	}

	middleware.SetSessionCookie(w, sess)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		services.Screens.Discard(sess.ID)
		if err := orchestrators.ExecuteLogout(r.Context(), sess.ID, services.Sessions); err != nil {
			internalError(w, r, err)
			return
		}
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
