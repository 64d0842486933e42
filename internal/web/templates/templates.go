package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed *.html
var files embed.FS

// Parsed once at startup; a bad template is a programming error.
var pages = template.Must(template.ParseFS(files, "*.html"))

// FlashMessage is a one-shot notification shown on the next page load
type FlashMessage struct {
	Type    string // "success", "error", "info"
	Message string
}

// PageData carries the fields every page shares
type PageData struct {
	Title       string
	Flash       *FlashMessage
	Username    string // empty when anonymous
	CurrentTime string
}

// LoginData is the data for the login page
type LoginData struct {
	PageData
	FormUsername string
	Error        string
	Next         string
}

// RegisterData is the data for the registration page
type RegisterData struct {
	PageData
	FormUsername string
	Error        string
}

// UpdatePasswordData is the data for the password update page
type UpdatePasswordData struct {
	PageData
	Error string
}

// Render executes the named page template into a buffer first, so a
// mid-render failure never sends partial HTML.
func Render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
