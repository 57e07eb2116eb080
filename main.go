package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractality/fractal"
	"github.com/stewi1014/fractality/link"
	"github.com/stewi1014/fractality/programs"
)

const applicationID = "com.github.stewi1014.fractality"

// Options are the command line settings.
type Options struct {
	Debug      bool
	Preset     string
	Bookmark   string
	Iterations uint
	Double     bool
}

func parseFlags(args []string) (Options, error) {
	var opts Options
	fs := flag.NewFlagSet("fractality", flag.ContinueOnError)
	fs.BoolVar(&opts.Debug, "debug", false, "enable debug logging and GL debug output")
	fs.StringVar(&opts.Preset, "preset", "mandelbrot", "starting preset")
	fs.StringVar(&opts.Bookmark, "bookmark", "", "starting view, by bookmark name")
	fs.UintVar(&opts.Iterations, "iterations", 0, "iteration count, 0 keeps the preset's")
	fs.BoolVar(&opts.Double, "double", false, "request double precision rendering")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// initialState builds the starting state from opts. Bookmarks are fitted to
// a square viewport so the whole region is visible at any window shape.
func initialState(opts Options) (fractal.State, error) {
	preset, err := programs.PresetByName(opts.Preset)
	if err != nil {
		return fractal.State{}, err
	}

	s := preset.State
	if opts.Iterations > 0 {
		s.IterationCount = uint32(opts.Iterations)
	}
	s.UseDoublePrecision = opts.Double

	if opts.Bookmark != "" {
		b, ok := fractal.BookmarkByName(opts.Bookmark)
		if !ok {
			return fractal.State{}, fmt.Errorf("unknown bookmark %q", opts.Bookmark)
		}
		s.Scale, s.Offset = b.Region.View(1)
	}
	return s, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	fractal.SetLogger(logger)

	state, err := initialState(opts)
	if err != nil {
		slog.Error("invalid options", "err", err)
		os.Exit(2)
	}

	mainContext, mainQuit := context.WithCancelCause(context.Background())

	go func() {
		defer CatchPanicToContext(mainQuit)
		mainQuit(gtkMain(mainContext, opts, state))
	}()

	<-mainContext.Done()
	if err := context.Cause(mainContext); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func gtkMain(ctx context.Context, opts Options, state fractal.State) error {
	runtime.LockOSThread()

	gtk.Init(nil)
	app, err := gtk.ApplicationNew(applicationID, glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return fmt.Errorf("gtk.ApplicationNew failed: %w", err)
	}

	appContext, appQuit := context.WithCancelCause(ctx)
	app.Connect("activate", func() {
		client, listener := link.NewPipeListener()

		renderWindow := NewRenderWindow(app, client, appContext, appQuit, state, opts.Debug)
		if renderWindow == nil {
			return
		}
		renderWindow.Connect("destroy", func() {
			appQuit(context.Canceled)
		})
		renderWindow.SetTitle(applicationTitle)

		configWindow := NewConfigWindow(app, listener, appContext, appQuit, state)
		if configWindow == nil {
			return
		}
		configWindow.Connect("destroy", func() {
			appQuit(context.Canceled)
		})
		configWindow.SetTitle(applicationTitle + " Config")
	})

	go func() {
		<-appContext.Done()
		glib.IdleAdd(app.Quit)
	}()
	app.Run(nil)
	return context.Cause(appContext)
}
