package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractality/fractal"
	"github.com/stewi1014/fractality/programs"
)

type SaveOptions struct {
	Name          string
	Width, Height int
	Antialias     float64
}

// save renders program on the CPU and writes it to opts.Name in the format
// its extension names. The file is removed unless the user keeps it from the
// preview.
func save(
	ctx context.Context,
	window *gtk.ApplicationWindow,
	opts SaveOptions,
	program programs.Program,
	uniforms fractal.Uniforms,
) {
	ctx, cancel := WithErrorDialogCancelCause(window, ctx)
	defer CatchPanicToContext(cancel)

	format, err := programs.FormatFromName(opts.Name)
	if err != nil {
		cancel(err)
		return
	}

	file, err := os.Create(opts.Name)
	if err != nil {
		cancel(err)
		return
	}
	context.AfterFunc(ctx, func() {
		file.Close()
	})
	keepFile := context.AfterFunc(ctx, func() {
		os.Remove(file.Name())
	})

	progress := make(chan *ProgressDialog, 1)
	glib.IdleAdd(func() {
		dialog, err := NewProgressDialog(
			ctx, window, "Save Image",
			fmt.Sprintf("Rendering %v", file.Name()),
			func() { cancel(context.Canceled) },
		)
		if err != nil {
			cancel(err)
		}
		progress <- dialog
	})
	dialog := <-progress
	if dialog == nil {
		return
	}

	start := time.Now()
	img, err := programs.Render(ctx, program, uniforms, programs.RenderOptions{
		Width:     opts.Width,
		Height:    opts.Height,
		Antialias: opts.Antialias,
		Progress:  dialog.AddProgressSupplier,
	})
	if err != nil {
		cancel(err)
		return
	}

	dialog.SetDescription(fmt.Sprintf("Encoding %v", file.Name()))
	if err := programs.Export(file, img, format); err != nil {
		cancel(fmt.Errorf("writing %v: %w", file.Name(), err))
		return
	}
	if err := file.Sync(); err != nil {
		cancel(err)
		return
	}
	elapsed := time.Since(start)
	slog.Info("saved image",
		"name", file.Name(),
		"format", format,
		"width", opts.Width,
		"height", opts.Height,
		"elapsed", elapsed,
	)

	glib.IdleAdd(func() {
		dialog.Hide()

		app, err := window.GetApplication()
		if err != nil {
			cancel(err)
			return
		}

		info := fmt.Sprintf("%v, %vx%v %v, rendered in %v",
			file.Name(), opts.Width, opts.Height, format, elapsed.Round(time.Millisecond))
		_, err = NewImageDialog(app, img, info,
			func() {
				keepFile()
				cancel(context.Canceled)
			},
			func() { cancel(context.Canceled) },
		)
		if err != nil {
			cancel(err)
		}
	})
}
