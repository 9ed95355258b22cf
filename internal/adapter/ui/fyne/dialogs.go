package fyne

import (
	"errors"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunecast/internal/service"
)

// OpenDialog is a helper for the "open endpoint" form.
type OpenDialog struct {
	window    fyne.Window
	callback  func(serverURL, slug string)
	serverURL *widget.Entry
	slug      *widget.Entry
}

// NewOpenDialog creates a new open dialog with prefilled entries.
func NewOpenDialog(window fyne.Window, serverURL, slug string, callback func(serverURL, slug string)) *OpenDialog {
	d := &OpenDialog{
		window:    window,
		callback:  callback,
		serverURL: widget.NewEntry(),
		slug:      widget.NewEntry(),
	}
	d.serverURL.SetPlaceHolder(service.DefaultServerURL)
	d.serverURL.SetText(serverURL)
	d.serverURL.Validator = validateServerURL

	d.slug.SetPlaceHolder("123456789")
	d.slug.SetText(slug)
	d.slug.Validator = validateSlug
	return d
}

// Show displays the dialog.
func (d *OpenDialog) Show() {
	items := []*widget.FormItem{
		widget.NewFormItem("Server", d.serverURL),
		widget.NewFormItem("Endpoint", d.slug),
	}
	dialog.ShowForm("Open Endpoint", "Open", "Cancel", items, func(ok bool) {
		if !ok {
			return // User cancelled
		}
		d.submit()
	}, d.window)
}

func (d *OpenDialog) submit() {
	if d.callback != nil {
		d.callback(strings.TrimSpace(d.serverURL.Text), strings.TrimSpace(d.slug.Text))
	}
}

func validateServerURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return errors.New("enter an http(s) URL")
	}
	return nil
}

func validateSlug(s string) error {
	if !service.ValidSlug(strings.TrimSpace(s)) {
		return errors.New("enter the endpoint slug")
	}
	return nil
}
