package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"reflect"
	"strconv"
	"strings"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractality/fractal"
	"github.com/stewi1014/fractality/link"
	"github.com/stewi1014/fractality/programs"
)

func NewConfigWindow(
	app *gtk.Application,
	listener net.Listener,
	ctx context.Context,
	quit func(error),
	state fractal.State,
) *ConfigWindow {
	var err error
	w := &ConfigWindow{
		ctx:         ctx,
		quit:        quit,
		state:       state,
		aspectRatio: 1,
	}

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}
	w.SetDefaultSize(320, 720)

	conn, err := listener.Accept()
	if err != nil {
		quit(fmt.Errorf("accepting render window connection: %w", err))
		return nil
	}
	w.messenger = link.NewMessenger(ctx, conn, quit, w.receive)

	grid, _ := gtk.GridNew()
	grid.SetColumnSpacing(8)
	grid.SetRowSpacing(6)
	grid.SetMarginStart(10)
	grid.SetMarginEnd(10)
	grid.SetMarginTop(10)
	grid.SetMarginBottom(10)
	w.grid = grid

	w.heading("Parameters")
	w.uintRow("Iteration count", func(s *fractal.State) *uint32 { return &s.IterationCount })
	w.floatRow("Escape radius", false, positive, func(s *fractal.State) *float64 { return &s.EscapeRadius })
	w.complexRows("Initial Z", func(s *fractal.State) *fractal.ComplexParameter { return &s.InitialZ })
	w.complexRows("C", func(s *fractal.State) *fractal.ComplexParameter { return &s.C })
	w.complexRows("P", func(s *fractal.State) *fractal.ComplexParameter { return &s.P })

	w.heading("View")
	w.floatRow("Scale", true, positive, func(s *fractal.State) *float64 { return &s.Scale })
	w.floatRow("Offset x", true, finite, func(s *fractal.State) *float64 { return &s.Offset[0] })
	w.floatRow("Offset y", true, finite, func(s *fractal.State) *float64 { return &s.Offset[1] })
	w.doublePrecisionRow()
	w.presetRow()
	w.bookmarkRow()

	w.heading("Export")
	w.exportRows()

	scrolled, _ := gtk.ScrolledWindowNew(nil, nil)
	scrolled.Add(grid)
	w.Add(scrolled)

	w.refresh()
	w.ShowAll()

	return w
}

type ConfigWindow struct {
	*gtk.ApplicationWindow
	grid *gtk.Grid
	row  int

	ctx       context.Context
	quit      func(error)
	messenger *link.Messenger

	state           fractal.State
	aspectRatio     float64
	doublePrecision bool

	// refreshers copy state into the widgets; updating suppresses the
	// change handlers while they run.
	refreshers []func()
	updating   bool
}

func (w *ConfigWindow) receive(msg any) {
	glib.IdleAdd(func() {
		switch msg := msg.(type) {
		case *link.StateMessage:
			w.state = msg.State
			if msg.Aspect > 0 {
				w.aspectRatio = msg.Aspect
			}
		case *link.CapabilityMessage:
			w.doublePrecision = msg.DoublePrecision
		default:
			slog.Warn("config window ignoring message", "type", reflect.TypeOf(msg))
			return
		}
		w.refresh()
	})
}

func (w *ConfigWindow) refresh() {
	if w.updating {
		return
	}
	w.updating = true
	defer func() { w.updating = false }()
	for _, r := range w.refreshers {
		r()
	}
}

// edit applies change and sends the result to the render window.
func (w *ConfigWindow) edit(view bool, change func(*fractal.State)) {
	if w.updating {
		return
	}
	change(&w.state)
	w.messenger.Send(&link.EditMessage{State: w.state, View: view})
}

func (w *ConfigWindow) attach(label string, widget gtk.IWidget) {
	if label != "" {
		l, _ := gtk.LabelNew(label)
		l.SetHAlign(gtk.ALIGN_START)
		w.grid.Attach(l, 0, w.row, 1, 1)
		w.grid.Attach(widget, 1, w.row, 1, 1)
	} else {
		w.grid.Attach(widget, 0, w.row, 2, 1)
	}
	w.row++
}

func (w *ConfigWindow) heading(text string) {
	l, _ := gtk.LabelNew("")
	l.SetMarkup("<b>" + text + "</b>")
	l.SetHAlign(gtk.ALIGN_START)
	w.attach("", l)
}

func (w *ConfigWindow) uintRow(label string, field func(*fractal.State) *uint32) {
	spin, _ := gtk.SpinButtonNewWithRange(1, 1<<20, 1)
	spin.SetHExpand(true)
	spin.Connect("value-changed", func(sb *gtk.SpinButton) {
		w.edit(false, func(s *fractal.State) { *field(s) = uint32(sb.GetValueAsInt()) })
	})
	w.refreshers = append(w.refreshers, func() {
		spin.SetValue(float64(*field(&w.state)))
	})
	w.attach(label, spin)
}

var (
	errNotFinite   = errors.New("value must be finite")
	errNotPositive = errors.New("value must be greater than zero")
)

// finite accepts any real number.
func finite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errNotFinite
	}
	return nil
}

// positive accepts finite numbers above zero.
func positive(v float64) error {
	if err := finite(v); err != nil {
		return err
	}
	if v <= 0 {
		return errNotPositive
	}
	return nil
}

// parseFloatEdit parses text for a field currently holding current. changed
// is false when the text holds the value the field already has, so that
// re-applying an untouched entry sends nothing.
func parseFloatEdit(text string, current float64, validate func(float64) error) (v float64, changed bool, err error) {
	v, err = strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false, err
	}
	if err := validate(v); err != nil {
		return 0, false, fmt.Errorf("%v: %w", text, err)
	}
	return v, v != current, nil
}

// floatEntry edits a float64 as text so that no digits are lost. Values
// validate rejects are discarded and the entry reverts.
func (w *ConfigWindow) floatEntry(view bool, validate func(float64) error, field func(*fractal.State) *float64) *gtk.Entry {
	entry, _ := gtk.EntryNew()
	entry.SetHExpand(true)

	apply := func() {
		if w.updating {
			return
		}
		text, err := entry.GetText()
		if err != nil {
			return
		}
		v, changed, err := parseFloatEdit(text, *field(&w.state), validate)
		if err != nil {
			slog.Debug("ignoring invalid number", "text", text, "err", err)
			w.refresh()
			return
		}
		if !changed {
			return
		}
		w.edit(view, func(s *fractal.State) { *field(s) = v })
	}
	entry.Connect("activate", func(*gtk.Entry) { apply() })
	entry.Connect("focus-out-event", func(*gtk.Entry, *gdk.Event) bool {
		apply()
		return false
	})

	w.refreshers = append(w.refreshers, func() {
		entry.SetText(strconv.FormatFloat(*field(&w.state), 'g', -1, 64))
	})
	return entry
}

func (w *ConfigWindow) floatRow(label string, view bool, validate func(float64) error, field func(*fractal.State) *float64) {
	w.attach(label, w.floatEntry(view, validate, field))
}

func (w *ConfigWindow) complexRows(label string, field func(*fractal.State) *fractal.ComplexParameter) {
	l, _ := gtk.LabelNew(label + ":")
	l.SetHAlign(gtk.ALIGN_START)
	w.attach("", l)

	w.parameterRow("  real", func(s *fractal.State) *fractal.Parameter { return &field(s).Real })
	w.parameterRow("  imaginary", func(s *fractal.State) *fractal.Parameter { return &field(s).Imaginary })
}

func (w *ConfigWindow) parameterRow(label string, field func(*fractal.State) *fractal.Parameter) {
	box, _ := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 2)

	combo, _ := gtk.ComboBoxTextNew()
	for _, kind := range fractal.ParameterKinds {
		combo.AppendText(kind.String())
	}
	value := w.floatEntry(false, finite, func(s *fractal.State) *float64 { return &field(s).Value })

	combo.Connect("changed", func(c *gtk.ComboBoxText) {
		i := c.GetActive()
		if i < 0 || i >= len(fractal.ParameterKinds) {
			return
		}
		w.edit(false, func(s *fractal.State) {
			p := field(s)
			*p = p.WithKind(fractal.ParameterKinds[i])
		})
		w.refresh()
	})
	w.refreshers = append(w.refreshers, func() {
		p := *field(&w.state)
		combo.SetActive(int(p.Kind))
		value.SetSensitive(p.Kind == fractal.Constant)
	})

	box.PackStart(combo, false, false, 0)
	box.PackStart(value, false, false, 0)
	w.attach(label, box)
}

func (w *ConfigWindow) doublePrecisionRow() {
	check, _ := gtk.CheckButtonNewWithLabel("Double precision")
	check.Connect("toggled", func(cb *gtk.CheckButton) {
		w.edit(false, func(s *fractal.State) { s.UseDoublePrecision = cb.GetActive() })
	})
	w.refreshers = append(w.refreshers, func() {
		check.SetActive(w.state.UseDoublePrecision)
		check.SetSensitive(w.doublePrecision)
		if !w.doublePrecision {
			check.SetTooltipText("Requires " + fractal.ExtensionShaderFP64 + " and " + fractal.ExtensionShaderInt64)
		} else {
			check.SetTooltipText("")
		}
	})
	w.attach("", check)
}

func (w *ConfigWindow) presetRow() {
	combo, _ := gtk.ComboBoxTextNew()
	for i := 0; i < programs.NumPresets(); i++ {
		combo.AppendText(programs.GetPreset(i).Name)
	}
	combo.Connect("changed", func(c *gtk.ComboBoxText) {
		i := c.GetActive()
		if i < 0 || i >= programs.NumPresets() {
			return
		}
		preset := programs.GetPreset(i)
		slog.Debug("selected preset", "name", preset.Name)
		w.edit(true, func(s *fractal.State) {
			double := s.UseDoublePrecision
			*s = preset.State
			s.UseDoublePrecision = double
		})
		w.refresh()
	})
	w.attach("Preset", combo)
}

func (w *ConfigWindow) bookmarkRow() {
	combo, _ := gtk.ComboBoxTextNew()
	for _, b := range fractal.Bookmarks {
		combo.AppendText(b.Name)
	}
	combo.Connect("changed", func(c *gtk.ComboBoxText) {
		b, ok := fractal.BookmarkByName(c.GetActiveText())
		if !ok {
			return
		}
		w.edit(true, func(s *fractal.State) {
			s.Scale, s.Offset = b.Region.View(w.aspectRatio)
		})
		w.refresh()
	})
	w.attach("Bookmark", combo)

	reset, _ := gtk.ButtonNewWithLabel("Reset view")
	reset.Connect("clicked", func() {
		w.edit(true, func(s *fractal.State) {
			*s = s.WithView(fractal.DefaultState())
		})
		w.refresh()
	})
	w.attach("", reset)
}

func (w *ConfigWindow) exportRows() {
	name, _ := gtk.EntryNew()
	name.SetText("fractal.png")
	w.attach("File", name)

	width, _ := gtk.SpinButtonNewWithRange(1, 1<<15, 1)
	width.SetValue(1920)
	w.attach("Width", width)

	height, _ := gtk.SpinButtonNewWithRange(1, 1<<15, 1)
	height.SetValue(1080)
	w.attach("Height", height)

	antialias, _ := gtk.SpinButtonNewWithRange(0, 4, 0.05)
	antialias.SetDigits(2)
	antialias.SetValue(0.35)
	w.attach("Antialias", antialias)

	save, _ := gtk.ButtonNewWithLabel("Save image")
	save.Connect("clicked", func() {
		file, err := name.GetText()
		if err != nil {
			NewErrorDialog(w.ApplicationWindow, err)
			return
		}

		// The CPU renderer can always run the double tier.
		tier := fractal.Single
		if w.state.UseDoublePrecision {
			tier = fractal.Double
		}
		go save(w.ctx, w.ApplicationWindow, SaveOptions{
			Name:      file,
			Width:     width.GetValueAsInt(),
			Height:    height.GetValueAsInt(),
			Antialias: antialias.GetValue(),
		}, programs.Fractal, fractal.Encode(w.state, tier))
	})
	w.attach("", save)
}
