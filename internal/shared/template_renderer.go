// Package shared holds the pongo2 template rendering plumbing.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
	"github.com/xeonx/timeago"
)

func init() {
	// timeago renders ticket timestamps as "3 hours ago" in listings.
	pongo2.RegisterFilter("timeago", filterTimeago)
}

func filterTimeago(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	t, ok := in.Interface().(time.Time)
	if !ok {
		return in, nil
	}
	return pongo2.AsValue(timeago.English.Format(t)), nil
}

// TemplateRenderer handles template rendering with pongo2.
type TemplateRenderer struct {
	templateSet *pongo2.TemplateSet
}

// NewTemplateRenderer creates a renderer rooted at templateDir.
func NewTemplateRenderer(templateDir string) (*TemplateRenderer, error) {
	if templateDir == "" {
		return nil, fmt.Errorf("template directory is required")
	}
	if _, err := os.Stat(templateDir); err != nil {
		return nil, fmt.Errorf("template directory not found: %w", err)
	}

	abs, _ := filepath.Abs(templateDir)
	templateSet := pongo2.NewSet("helpdesk", pongo2.MustNewLocalFileSystemLoader(abs))

	return &TemplateRenderer{templateSet: templateSet}, nil
}

// HTML renders a template into the response.
func (r *TemplateRenderer) HTML(c *gin.Context, code int, name string, data interface{}) {
	var ctx pongo2.Context
	switch v := data.(type) {
	case pongo2.Context:
		ctx = v
	case gin.H:
		ctx = pongo2.Context(v)
	default:
		ctx = pongo2.Context{"data": data}
	}

	if r == nil || r.templateSet == nil {
		// Minimal fallback for tests running without the template tree.
		c.String(code, "helpdesk")
		return
	}
	tmpl, err := r.templateSet.FromFile(name)
	if err != nil {
		c.String(http.StatusInternalServerError, "Template not found: %s", name)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(code)
	if err := tmpl.ExecuteWriter(ctx, c.Writer); err != nil {
		c.String(http.StatusInternalServerError, "Template execution error: %v", err)
	}
}
