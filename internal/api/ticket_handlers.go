package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/storage"
)

// handleUserDashboard lists the caller's own tickets.
func (r *Router) handleUserDashboard(c *gin.Context) {
	account, _ := middleware.CurrentAccount(c)

	tickets, err := r.tickets.ListForSubmitter(c.Request.Context(), account.ID)
	if err != nil {
		r.log.Error("user dashboard failed", zap.Int64("account_id", account.ID), zap.Error(err))
		r.gate.AddFlash(c, "An error occurred while loading your dashboard.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	r.render(c, http.StatusOK, "user_dashboard.pongo2", gin.H{"tickets": tickets})
}

func (r *Router) handleCreateTicketForm(c *gin.Context) {
	r.render(c, http.StatusOK, "create_ticket.pongo2", gin.H{})
}

// handleCreateTicket files a ticket for the authenticated caller, with an
// optional size-capped attachment.
func (r *Router) handleCreateTicket(c *gin.Context) {
	account, _ := middleware.CurrentAccount(c)

	subject := c.PostForm("subject")
	description := c.PostForm("description")
	category := c.PostForm("category")

	var attachment *service.Attachment
	if file, err := c.FormFile("attachment"); err == nil && file != nil {
		if r.cfg.Storage.Attachments.MaxSize > 0 && file.Size > r.cfg.Storage.Attachments.MaxSize {
			r.gate.AddFlash(c, "The attachment exceeds the 50 MB size limit.")
			c.Redirect(http.StatusSeeOther, "/user/create-ticket")
			return
		}
		src, err := file.Open()
		if err != nil {
			r.log.Error("attachment open failed", zap.Error(err))
			r.gate.AddFlash(c, "An error occurred while uploading the attachment.")
			c.Redirect(http.StatusSeeOther, "/user/create-ticket")
			return
		}
		defer src.Close()
		attachment = &service.Attachment{Filename: file.Filename, Content: src}
	}

	_, err := r.tickets.Create(c.Request.Context(), account, subject, description, category, attachment)
	switch {
	case err == nil:
		r.gate.AddFlash(c, "Ticket created successfully!")
		c.Redirect(http.StatusSeeOther, "/user/dashboard")
	case errors.Is(err, service.ErrValidation):
		r.gate.AddFlash(c, "Subject, description and category are required.")
		c.Redirect(http.StatusSeeOther, "/user/create-ticket")
	case errors.Is(err, storage.ErrTooLarge):
		r.gate.AddFlash(c, "The attachment exceeds the 50 MB size limit.")
		c.Redirect(http.StatusSeeOther, "/user/create-ticket")
	default:
		r.log.Error("ticket create failed", zap.Int64("account_id", account.ID), zap.Error(err))
		r.gate.AddFlash(c, "An error occurred while creating the ticket.")
		c.Redirect(http.StatusSeeOther, "/user/create-ticket")
	}
}

// handleAdminDashboard lists every open ticket with submitter usernames.
func (r *Router) handleAdminDashboard(c *gin.Context) {
	tickets, err := r.tickets.ListOpen(c.Request.Context())
	if err != nil {
		r.log.Error("admin dashboard failed", zap.Error(err))
		r.gate.AddFlash(c, "An error occurred while loading the admin dashboard.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	r.render(c, http.StatusOK, "admin_dashboard.pongo2", gin.H{"tickets": tickets})
}

func (r *Router) handleRespondTicketForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		r.gate.AddFlash(c, "Unknown ticket.")
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
		return
	}

	ticket, err := r.tickets.GetByID(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		r.gate.AddFlash(c, "Unknown ticket.")
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
		return
	}
	if err != nil {
		r.log.Error("ticket load failed", zap.Int64("ticket_id", id), zap.Error(err))
		r.gate.AddFlash(c, "An error occurred while loading the ticket.")
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
		return
	}

	r.render(c, http.StatusOK, "respond_ticket.pongo2", gin.H{"ticket": ticket})
}

// handleRespondTicket attaches the administrator response and flips the
// ticket to responded.
func (r *Router) handleRespondTicket(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		r.gate.AddFlash(c, "Unknown ticket.")
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
		return
	}

	_, err = r.tickets.Respond(c.Request.Context(), id, c.PostForm("response"))
	switch {
	case err == nil:
		r.gate.AddFlash(c, "Response saved and ticket marked as responded.")
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
	case errors.Is(err, service.ErrNotFound):
		r.gate.AddFlash(c, "Unknown ticket.")
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
	case errors.Is(err, service.ErrValidation):
		r.gate.AddFlash(c, "A response text is required.")
		c.Redirect(http.StatusSeeOther, "/admin/respond-ticket/"+c.Param("id"))
	default:
		r.log.Error("ticket respond failed", zap.Int64("ticket_id", id), zap.Error(err))
		r.gate.AddFlash(c, "An error occurred while saving the response.")
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
	}
}

// handleDownloadAttachment streams a ticket's stored attachment.
func (r *Router) handleDownloadAttachment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return
	}

	ticket, err := r.tickets.GetByID(c.Request.Context(), id)
	if err != nil || !ticket.Attachment.Valid {
		c.String(http.StatusNotFound, "not found")
		return
	}

	rc, err := r.tickets.OpenAttachment(c.Request.Context(), ticket)
	if err != nil {
		r.log.Error("attachment open failed", zap.Int64("ticket_id", id), zap.Error(err))
		c.String(http.StatusNotFound, "not found")
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+ticket.Attachment.String+`"`)
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		r.log.Warn("attachment stream interrupted", zap.Int64("ticket_id", id), zap.Error(err))
	}
}
