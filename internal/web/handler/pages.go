package handler

import (
	"net/http"

	"github.com/kmorand/gatehouse/internal/dependencies/clock"
	"github.com/kmorand/gatehouse/internal/web/middleware"
	"github.com/kmorand/gatehouse/internal/web/templates"
)

// Display format for the render timestamp shown on every member page
const timeFormat = "2006-01-02 15:04:05"

// PageHandler serves the session-gated member pages
type PageHandler struct {
	clock clock.Clock
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(clk clock.Clock) *PageHandler {
	return &PageHandler{clock: clk}
}

// Home renders the member home page
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderContent(w, r, "home", "Home")
}

// Overview renders the overview page
func (h *PageHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.renderContent(w, r, "overview", "Overview")
}

// Archive renders the archive page
func (h *PageHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.renderContent(w, r, "archive", "Archive")
}

func (h *PageHandler) renderContent(w http.ResponseWriter, r *http.Request, name, title string) {
	data := templates.PageData{
		Title:       title,
		Flash:       middleware.GetFlash(r.Context()),
		CurrentTime: h.clock.Now().Format(timeFormat),
	}
	if session := middleware.GetSession(r.Context()); session != nil {
		data.Username = session.Username
	}
	renderPage(w, r, name, data)
}
