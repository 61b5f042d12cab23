package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
)

func (r *Router) handleIndex(c *gin.Context) {
	r.render(c, http.StatusOK, "index.pongo2", gin.H{})
}

func (r *Router) handleRegisterForm(c *gin.Context) {
	r.render(c, http.StatusOK, "register.pongo2", gin.H{})
}

// handleRegister processes the registration form. Every service error
// becomes a flash message and a redirect back to the form; detail is logged
// only.
func (r *Router) handleRegister(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")

	_, err := r.authSvc.Register(c.Request.Context(), username, password, confirm)
	switch {
	case err == nil:
		r.gate.AddFlash(c, "Registration successful! Please log in to continue.")
		c.Redirect(http.StatusSeeOther, "/login")
	case errors.Is(err, auth.ErrValidation):
		switch {
		case password != confirm:
			r.gate.AddFlash(c, "The passwords do not match. Please try again.")
		case password != "" && len(password) < r.cfg.Auth.Password.MinLength:
			r.gate.AddFlash(c, fmt.Sprintf("Passwords must be at least %d characters long.", r.cfg.Auth.Password.MinLength))
		default:
			r.gate.AddFlash(c, "Username and password are required.")
		}
		c.Redirect(http.StatusSeeOther, "/register")
	case errors.Is(err, auth.ErrConflict):
		r.gate.AddFlash(c, "That username is already in use. Please choose another.")
		c.Redirect(http.StatusSeeOther, "/register")
	default:
		r.log.Error("registration failed", zap.String("username", username), zap.Error(err))
		r.gate.AddFlash(c, "An error occurred while registering. Please try again.")
		c.Redirect(http.StatusSeeOther, "/register")
	}
}

func (r *Router) handleLoginForm(c *gin.Context) {
	r.render(c, http.StatusOK, "login.pongo2", gin.H{})
}

// handleLogin verifies credentials, establishes the session and routes
// admins and users to their dashboards.
func (r *Router) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	account, err := r.authSvc.Login(c.Request.Context(), username, password)
	switch {
	case err == nil:
		// fall through to session setup below
	case errors.Is(err, auth.ErrUserNotFound):
		r.gate.AddFlash(c, "Username not found. Check the username or register an account.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		r.gate.AddFlash(c, "Incorrect password. Please try again.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	default:
		r.log.Error("login failed", zap.String("username", username), zap.Error(err))
		r.gate.AddFlash(c, "An error occurred during login. Please try again.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	sess, err := r.sessions.Create(c.Request.Context(), account)
	if err != nil {
		r.log.Error("session create failed", zap.Error(err))
		r.gate.AddFlash(c, "An error occurred during login. Please try again.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	maxAge := r.cfg.Auth.Session.MaxAge
	secure := r.cfg.Auth.Session.Secure
	c.SetCookie(r.gate.CookieName(), sess.ID, maxAge, "/", "", secure, true)

	if token, err := r.jwt.GenerateToken(account.ID, account.Username, account.IsAdmin); err == nil {
		c.SetCookie("access_token", token, maxAge, "/", "", secure, true)
	} else {
		r.log.Warn("access token issue failed", zap.Error(err))
	}

	if account.IsAdmin {
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
		return
	}
	c.Redirect(http.StatusSeeOther, "/user/dashboard")
}

// handleLogout destroys the session and clears both cookies.
func (r *Router) handleLogout(c *gin.Context) {
	if sess, ok := middleware.CurrentSession(c); ok && sess.ID != "" {
		if err := r.sessions.Destroy(c.Request.Context(), sess.ID); err != nil {
			r.log.Warn("session destroy failed", zap.Error(err))
		}
	}

	secure := r.cfg.Auth.Session.Secure
	c.SetCookie(r.gate.CookieName(), "", -1, "/", "", secure, true)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.Redirect(http.StatusSeeOther, "/")
}
