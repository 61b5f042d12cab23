// Package middleware carries the session/authorization gates.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/session"
)

// Context keys set by the gate for downstream handlers.
const (
	ContextSession = "session"
	ContextAccount = "account"
)

// Gate resolves sessions and enforces the authenticated/administrator
// gates. Redirected requests mutate nothing.
type Gate struct {
	store      session.Store
	jwt        *auth.JWTManager
	cookieName string
	maxAge     int
	secure     bool
}

// NewGate creates the session/authorization gate.
func NewGate(store session.Store, jwt *auth.JWTManager, cookieName string, maxAge int, secure bool) *Gate {
	if cookieName == "" {
		cookieName = "helpdesk_session"
	}
	return &Gate{store: store, jwt: jwt, cookieName: cookieName, maxAge: maxAge, secure: secure}
}

// CookieName returns the session cookie name the gate reads.
func (g *Gate) CookieName() string {
	return g.cookieName
}

// Resolve loads the session for every request, if one exists, and exposes
// the account copy it carries on the gin context. Requests without a valid
// session pass through anonymous.
func (g *Gate) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess := g.resolveSession(c); sess != nil {
			c.Set(ContextSession, sess)
			if sess.IsAuthenticated() {
				c.Set(ContextAccount, &models.Account{
					ID:       sess.AccountID,
					Username: sess.Username,
					IsAdmin:  sess.IsAdmin,
				})
			}
		}
		c.Next()
	}
}

// RequireAuth redirects unauthenticated callers to the login entry point
// with a human-readable reason.
func (g *Gate) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentAccount(c); ok {
			c.Next()
			return
		}

		g.AddFlash(c, "Please log in to access this page.")
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
	}
}

// RequireAdmin redirects non-administrator callers to the landing page with
// a human-readable reason. Runs after RequireAuth on admin routes, but also
// covers anonymous callers on its own.
func (g *Gate) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			g.AddFlash(c, "Please log in to access this page.")
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		if !account.IsAdmin {
			g.AddFlash(c, "Restricted area. Administrator access required.")
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AddFlash records a one-time notice on the caller's session, creating an
// anonymous session when none exists so the notice survives the redirect.
func (g *Gate) AddFlash(c *gin.Context, message string) {
	ctx := c.Request.Context()

	if sess, ok := CurrentSession(c); ok {
		if err := g.store.AddFlash(ctx, sess.ID, message); err == nil {
			return
		}
	}

	sess, err := g.store.Create(ctx, nil)
	if err != nil {
		return
	}
	if err := g.store.AddFlash(ctx, sess.ID, message); err != nil {
		return
	}
	c.Set(ContextSession, sess)
	c.SetCookie(g.cookieName, sess.ID, g.maxAge, "/", "", g.secure, true)
}

// ConsumeFlash returns and clears the pending notices for the request.
func (g *Gate) ConsumeFlash(c *gin.Context) []string {
	sess, ok := CurrentSession(c)
	if !ok {
		return nil
	}
	flash, err := g.store.ConsumeFlash(c.Request.Context(), sess.ID)
	if err != nil {
		return nil
	}
	return flash
}

// resolveSession tries the session cookie first, then falls back to the JWT
// access token for clients that hold only the token.
func (g *Gate) resolveSession(c *gin.Context) *models.Session {
	if id, err := c.Cookie(g.cookieName); err == nil && id != "" {
		if sess, err := g.store.Get(c.Request.Context(), id); err == nil {
			return sess
		}
		// Stale cookie; clear it.
		c.SetCookie(g.cookieName, "", -1, "/", "", g.secure, true)
	}

	if g.jwt == nil {
		return nil
	}
	token, err := c.Cookie("access_token")
	if err != nil || token == "" {
		return nil
	}
	claims, err := g.jwt.ValidateToken(token)
	if err != nil {
		c.SetCookie("access_token", "", -1, "/", "", g.secure, true)
		return nil
	}
	return &models.Session{
		ID:        "",
		AccountID: claims.AccountID,
		Username:  claims.Username,
		IsAdmin:   claims.IsAdmin,
	}
}

// CurrentSession retrieves the resolved session from the context.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	v, exists := c.Get(ContextSession)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*models.Session)
	return sess, ok
}

// CurrentAccount retrieves the authenticated account copy from the context.
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	v, exists := c.Get(ContextAccount)
	if !exists {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok
}
