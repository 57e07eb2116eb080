package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractality/programs"
)

func CatchPanicToContext(ctxCancel context.CancelCauseFunc) {
	if v := recover(); v != nil {
		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", v)
		}
		err = fmt.Errorf("%w\n%v", err, string(debug.Stack()))
		if ctxCancel != nil {
			ctxCancel(err)
		}
	}
}

// WithErrorDialogCancelCause returns a child of ctx whose cancellation cause,
// unless it is context.Canceled, is shown in an error dialog over parent.
func WithErrorDialogCancelCause(parent gtk.IWindow, ctx context.Context) (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancelCause(ctx)
	AttachErrorDialog(parent, ctx)
	return ctx, cancel
}

func WrapErrorDialog(parent gtk.IWindow, failable func() error) func() {
	return func() {
		err := failable()
		if err != nil {
			slog.Error("operation failed", "err", err)
			glib.IdleAdd(func() {
				NewErrorDialog(parent, err)
			})
		}
	}
}

func AttachErrorDialog(parent gtk.IWindow, ctx context.Context) {
	go func() {
		<-ctx.Done()
		err := context.Cause(ctx)
		if !errors.Is(err, context.Canceled) {
			slog.Error("operation failed", "err", err)
			glib.IdleAdd(func() {
				NewErrorDialog(parent, err)
			})
		}
	}()
}

// NewErrorDialog shows err over parent, naming the caller's location. It
// blocks until the dialog is closed.
func NewErrorDialog(parent gtk.IWindow, err error) {
	location := "unknown file"
	if _, file, line, ok := runtime.Caller(1); ok {
		location = fmt.Sprintf("%s:%v", file, line)
	}

	dialog := gtk.MessageDialogNew(
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		gtk.MESSAGE_ERROR,
		gtk.BUTTONS_CLOSE,
		"Error in %s: %s",
		location,
		err.Error(),
	)
	dialog.Connect("response", dialog.Destroy)
	selectableMessage(dialog)

	dialog.SetKeepAbove(true)
	dialog.Run()
}

// selectableMessage lets the user copy the text of a message dialog.
func selectableMessage(dialog *gtk.MessageDialog) {
	area, err := dialog.GetMessageArea()
	if err != nil {
		slog.Warn("error dialog has no message area", "err", err)
		return
	}
	area.GetChildren().Foreach(func(item interface{}) {
		widget, ok := item.(*gtk.Widget)
		if !ok {
			return
		}
		if label, err := gtk.WidgetToLabel(widget); err == nil {
			label.SetSelectable(true)
		}
	})
}

// ProgressDialog shows the averaged progress of one or more long running
// tasks until its context is done.
type ProgressDialog struct {
	*gtk.Dialog
	bar   *gtk.ProgressBar
	label *gtk.Label

	mu        sync.Mutex
	suppliers []func() float64
}

func NewProgressDialog(
	ctx context.Context,
	parent gtk.IWindow,
	title string,
	description string,
	onCancel func(),
) (*ProgressDialog, error) {
	d := &ProgressDialog{}

	var err error
	d.Dialog, err = gtk.DialogNewWithButtons(
		title,
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		[]interface{}{"Cancel", gtk.RESPONSE_CANCEL},
	)
	if err != nil {
		return nil, fmt.Errorf("gtk.DialogNewWithButtons: %w", err)
	}
	d.SetKeepAbove(true)
	d.Connect("response", func(_ *gtk.Dialog, response gtk.ResponseType) {
		if response == gtk.RESPONSE_CANCEL {
			onCancel()
		}
	})

	content, err := d.GetContentArea()
	if err != nil {
		return nil, fmt.Errorf("dialog content area: %w", err)
	}
	d.label, _ = gtk.LabelNew(description)
	d.bar, _ = gtk.ProgressBarNew()
	d.bar.SetShowText(true)
	d.bar.SetSizeRequest(500, 80)
	content.Add(d.label)
	content.Add(d.bar)

	d.ShowAll()
	go d.update(ctx)
	return d, nil
}

// AddProgressSupplier adds a source of progress in [0, 1]. Sources are
// averaged. It is safe to call from any goroutine.
func (d *ProgressDialog) AddProgressSupplier(supplier func() float64) {
	d.mu.Lock()
	d.suppliers = append(d.suppliers, supplier)
	d.mu.Unlock()
}

func (d *ProgressDialog) SetDescription(description string) {
	glib.IdleAdd(func() {
		d.label.SetText(description)
	})
}

// progress averages the suppliers, reporting false when there are none.
func (d *ProgressDialog) progress() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.suppliers) == 0 {
		return 0, false
	}
	var sum float64
	for _, supplier := range d.suppliers {
		sum += supplier()
	}
	return sum / float64(len(d.suppliers)), true
}

func (d *ProgressDialog) update(ctx context.Context) {
	ticker := time.NewTicker(time.Second / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fraction, known := d.progress()
			glib.IdleAdd(func() {
				if !known {
					d.bar.Pulse()
					return
				}
				d.bar.SetFraction(fraction)
			})
		case <-ctx.Done():
			glib.IdleAdd(d.Destroy)
			return
		}
	}
}

// previewSide is the longest side of the image shown in an ImagePreview.
const previewSide = 640

// previewPixbuf scales img down for display.
func previewPixbuf(img image.Image) (*gdk.Pixbuf, error) {
	var buf bytes.Buffer
	if err := programs.Export(&buf, programs.Thumbnail(img, previewSide), programs.PNG); err != nil {
		return nil, err
	}
	return gdk.PixbufNewFromBytesOnly(buf.Bytes())
}

// ImagePreview shows a finished render and lets the user keep or discard it.
type ImagePreview struct {
	*gtk.ApplicationWindow
}

// NewImageDialog opens a preview of img captioned with info. Exactly one of
// keep and discard runs, when the user picks a button or closes the window.
func NewImageDialog(
	app *gtk.Application,
	img image.Image,
	info string,
	keep func(),
	discard func(),
) (*ImagePreview, error) {
	window, err := gtk.ApplicationWindowNew(app)
	if err != nil {
		return nil, err
	}
	w := &ImagePreview{ApplicationWindow: window}
	w.SetTitle("Save Image")

	pixbuf, err := previewPixbuf(img)
	if err != nil {
		return nil, fmt.Errorf("building preview: %w", err)
	}
	preview, err := gtk.ImageNewFromPixbuf(pixbuf)
	if err != nil {
		return nil, err
	}
	preview.SetHExpand(true)
	preview.SetVExpand(true)

	caption, _ := gtk.LabelNew(info)
	caption.SetSelectable(true)

	var once sync.Once
	respond := func(f func()) func() {
		return func() {
			once.Do(func() {
				if f != nil {
					f()
				}
			})
		}
	}

	keepButton, _ := gtk.ButtonNewWithLabel("Keep")
	keepButton.Connect("clicked", func() {
		respond(keep)()
		w.Destroy()
	})
	discardButton, _ := gtk.ButtonNewWithLabel("Delete")
	discardButton.Connect("clicked", func() {
		respond(discard)()
		w.Destroy()
	})
	w.Connect("destroy", respond(discard))

	buttons, _ := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 6)
	buttons.PackStart(keepButton, false, false, 0)
	buttons.PackEnd(discardButton, false, false, 0)

	layout, _ := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 6)
	layout.SetMarginStart(6)
	layout.SetMarginEnd(6)
	layout.SetMarginTop(6)
	layout.SetMarginBottom(6)
	layout.PackStart(preview, true, true, 0)
	layout.PackStart(caption, false, false, 0)
	layout.PackStart(buttons, false, false, 0)

	w.Add(layout)
	w.ShowAll()
	return w, nil
}
