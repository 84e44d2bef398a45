// Package viewer shows a segmentation in a desktop window: the label map
// and the border map side by side, plus a colour overlay tab.
package viewer

import (
	"fmt"
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	AppID   = "io.github.disf.superpixels"
	AppName = "DISF Superpixels"
)

// Panels are the pictures shown for one run. Overlay may be nil.
type Panels struct {
	Title   string
	Labels  image.Image
	Borders image.Image
	Overlay image.Image
	Summary string
}

type Viewer struct {
	fyneApp fyne.App
	window  fyne.Window

	labels  *canvas.Image
	borders *canvas.Image
	overlay *canvas.Image
	split   *container.Split
	tabs    *container.AppTabs
	summary *widget.Label
}

// New opens a window on a fresh Fyne application.
func New(width, height int) *Viewer {
	return NewWithApp(app.NewWithID(AppID), width, height)
}

// NewWithApp builds the window on an existing application.
func NewWithApp(fyneApp fyne.App, width, height int) *Viewer {
	v := &Viewer{
		fyneApp: fyneApp,
		window:  fyneApp.NewWindow(AppName),
		summary: widget.NewLabel(""),
	}

	panelSize := fyne.NewSize(float32(width)/2, float32(height))
	v.labels = newPanelImage(panelSize)
	v.borders = newPanelImage(panelSize)
	v.overlay = newPanelImage(fyne.NewSize(float32(width), float32(height)))

	v.split = container.NewHSplit(
		titled("**Labels**", v.labels),
		titled("**Borders**", v.borders),
	)
	v.split.SetOffset(0.5)

	v.tabs = container.NewAppTabs(
		container.NewTabItem("Side by side", v.split),
		container.NewTabItem("Overlay", titled("**Overlay**", v.overlay)),
	)

	v.window.SetContent(container.NewBorder(nil, v.summary, nil, nil, v.tabs))
	v.window.Resize(fyne.NewSize(float32(width), float32(height)+40))
	v.window.CenterOnScreen()
	v.window.SetMaster()
	return v
}

func newPanelImage(size fyne.Size) *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	// label maps are piecewise constant; smoothing would invent borders
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(size)
	return img
}

func titled(markdown string, img *canvas.Image) *fyne.Container {
	return container.NewBorder(
		container.NewHBox(widget.NewRichTextFromMarkdown(markdown)),
		nil, nil, nil,
		container.NewStack(canvas.NewRectangle(color.Black), img),
	)
}

// SetPanels replaces what the window shows. Safe to call from any
// goroutine.
func (v *Viewer) SetPanels(p Panels) {
	fyne.Do(func() {
		v.apply(p)
	})
}

func (v *Viewer) apply(p Panels) {
	v.labels.Image = p.Labels
	v.borders.Image = p.Borders
	v.overlay.Image = p.Overlay
	v.labels.Refresh()
	v.borders.Refresh()
	v.overlay.Refresh()

	if p.Overlay == nil {
		v.tabs.DisableIndex(1)
	} else {
		v.tabs.EnableIndex(1)
	}

	title := AppName
	if p.Title != "" {
		title = fmt.Sprintf("%s - %s", AppName, p.Title)
	}
	v.window.SetTitle(title)
	v.summary.SetText(p.Summary)
}

// Run shows p and blocks until the window is closed. It must be called
// from the main goroutine.
func (v *Viewer) Run(p Panels) {
	v.apply(p)
	v.window.ShowAndRun()
}

func (v *Viewer) Window() fyne.Window {
	return v.window
}
