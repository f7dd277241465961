package appstate

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"reflect"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/clipboard"
	"github.com/example/polymark/internal/imagesource"
	"github.com/example/polymark/internal/notify"
	"github.com/example/polymark/internal/render"
	"github.com/example/polymark/internal/theme"
)

const (
	toolbarHeight  = 24
	statusHeight   = 20
	shortcutHeight = 24
	defaultWidth   = 1024
	defaultHeight  = 768
	messageTimeout = 2 * time.Second
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 24, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

// AppState hosts an editing session in a desktop window.
type AppState struct {
	Source string
	Output string

	fetcher  *imagesource.Fetcher
	notifier *notify.Notifier
	theme    *theme.Theme
	log      log.FieldLogger

	onClose   func()
	closeOnce sync.Once
}

// WindowOption modifies an AppState during creation.
type WindowOption func(*AppState)

// WithSource sets the image path or URL opened on start.
func WithSource(ref string) WindowOption { return func(a *AppState) { a.Source = ref } }

// WithOutput sets the file written by the export action.
func WithOutput(out string) WindowOption { return func(a *AppState) { a.Output = out } }

// WithFetcher replaces the image fetcher.
func WithFetcher(f *imagesource.Fetcher) WindowOption { return func(a *AppState) { a.fetcher = f } }

// WithNotifier sets the desktop notifier for export and copy.
func WithNotifier(n *notify.Notifier) WindowOption { return func(a *AppState) { a.notifier = n } }

// WithWindowLogger sets the logger shared by the window and its machine.
func WithWindowLogger(l log.FieldLogger) WindowOption { return func(a *AppState) { a.log = l } }

// WithTheme sets the window palette.
func WithTheme(t *theme.Theme) WindowOption { return func(a *AppState) { a.theme = t } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) WindowOption { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...WindowOption) *AppState {
	a := &AppState{Output: render.ExportFilename, log: log.StandardLogger()}
	for _, o := range opts {
		o(a)
	}
	if a.fetcher == nil {
		a.fetcher = imagesource.New()
	}
	if a.theme == nil {
		a.theme = theme.Default()
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// loadedEvent carries a decoded image back to the event goroutine.
type loadedEvent struct {
	tok LoadToken
	img image.Image
	err error
}

// layout splits the window into its bands.
type layout struct {
	toolbarArea, stage, statusArea, shortcutArea image.Rectangle
}

func layoutFor(width, height int) layout {
	stageMax := max(height-statusHeight-shortcutHeight, toolbarHeight)
	return layout{
		toolbarArea:  image.Rect(0, 0, width, toolbarHeight),
		stage:        image.Rect(0, toolbarHeight, width, stageMax),
		statusArea:   image.Rect(0, stageMax, width, stageMax+statusHeight),
		shortcutArea: image.Rect(0, stageMax+statusHeight, width, height),
	}
}

// Main runs the window on s until it is closed.
func (a *AppState) Main(s screen.Screen) {
	width, height := defaultWidth, defaultHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "polymark"})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer a.notifyClose()

	lay := layoutFor(width, height)
	m := NewMachine(WithLogger(a.log), WithStage(lay.stage.Size()))
	var base image.Image

	var message string
	var messageUntil time.Time
	say := func(format string, args ...any) {
		message = fmt.Sprintf(format, args...)
		messageUntil = time.Now().Add(messageTimeout)
		a.log.Info(message)
	}

	ctx, cancelLoads := context.WithCancel(context.Background())
	defer cancelLoads()
	load := func(ref string) {
		base = nil
		tok := m.BeginLoad(ref)
		go func() {
			img, err := a.fetcher.Load(ctx, ref)
			w.Send(loadedEvent{tok: tok, img: img, err: err})
		}()
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		scenes := &sceneCache{}
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st, scenes)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
		}
	}()
	defer close(paintCh)
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	keys := NewKeymap()
	m.RegisterActions(keys)
	quit := false
	keys.Register("export", "^S:export", shortcutList{{Rune: 's', Modifiers: key.ModControl}, {Code: key.CodeS, Modifiers: key.ModControl}}, func() bool {
		if !m.CanExport() {
			say("nothing to export")
			return true
		}
		if err := a.export(base, m.Annotations().Polygons); err != nil {
			log.Printf("export: %v", err)
			say("export failed")
			return true
		}
		say("saved %s", a.Output)
		a.notifier.Export(a.Output)
		return true
	})
	keys.Register("copy", "^C:copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}, {Code: key.CodeC, Modifiers: key.ModControl}}, func() bool {
		if !m.CanExport() {
			say("nothing to copy")
			return true
		}
		img, err := render.Export(base, m.Annotations().Polygons)
		if err == nil {
			err = clipboard.WriteImage(img)
		}
		if err != nil {
			log.Printf("copy: %v", err)
			say("copy failed")
			return true
		}
		say("image copied to clipboard")
		a.notifier.Copy("annotated image", img)
		return true
	})
	keys.Register("paste", "^V:open", shortcutList{{Rune: 'v', Modifiers: key.ModControl}, {Code: key.CodeV, Modifiers: key.ModControl}}, func() bool {
		if img, err := clipboard.ReadImage(); err == nil {
			tok := m.BeginLoad("clipboard")
			base = nil
			w.Send(loadedEvent{tok: tok, img: img})
			return true
		}
		ref, err := clipboard.ReadText()
		if err != nil {
			log.Printf("paste: %v", err)
			say("clipboard has no image")
			return true
		}
		load(ref)
		return true
	})
	keys.Register("quit", "Q:quit", shortcutList{{Rune: 'q'}}, func() bool {
		quit = true
		return false
	})

	toolbar := newToolbar(func(action string) { keys.Trigger(action) }, a.theme)
	var shortcuts []*Shortcut
	hoverButton, pressedButton, hoverShortcut := -1, -1, -1

	if a.Source != "" {
		load(a.Source)
	}

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			lay = layoutFor(width, height)
			m.Resize(lay.stage.Size())
			w.Send(paint.Event{})
		case loadedEvent:
			switch {
			case e.err != nil:
				if m.FailLoad(e.tok, e.err) {
					log.Printf("load: %v", e.err)
				}
			case m.CompleteLoad(e.tok, e.img.Bounds().Size()):
				base = e.img
			}
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			shortcuts = shortcutButtons(keys, lay.shortcutArea, a.theme)
			st := paintState{
				layout:        lay,
				width:         width,
				height:        height,
				theme:         a.theme,
				snap:          m.Snapshot(),
				base:          base,
				detail:        m.DrawingDetail(),
				notice:        m.Notice(),
				counter:       m.Counter(),
				toolbar:       toolbar,
				enabled:       toolbarEnabled(m, toolbar),
				shortcuts:     shortcuts,
				hoverButton:   hoverButton,
				pressedButton: pressedButton,
				hoverShortcut: hoverShortcut,
				message:       message,
				messageUntil:  messageUntil,
			}
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			if message != "" && time.Now().Before(messageUntil) && e.Direction == mouse.DirPress {
				messageUntil = time.Time{}
				w.Send(paint.Event{})
				continue
			}
			if !p.In(lay.stage) && !m.Dragging() {
				hb, hs := hitButton(toolbar, p), hitButton(shortcuts, p)
				repaint := hb != hoverButton || hs != hoverShortcut
				hoverButton, hoverShortcut = hb, hs
				if e.Button == mouse.ButtonLeft {
					switch e.Direction {
					case mouse.DirPress:
						pressedButton = hb
						repaint = true
					case mouse.DirRelease:
						if hb >= 0 && hb == pressedButton {
							toolbar[hb].Activate()
						} else if hs >= 0 {
							shortcuts[hs].Activate()
						}
						pressedButton = -1
						repaint = true
					}
				}
				if m.HandleMouse(e, lay.stage) {
					repaint = true
				}
				if repaint {
					w.Send(paint.Event{})
				}
				if quit {
					stopPaint()
					return
				}
				continue
			}
			if hoverButton >= 0 || hoverShortcut >= 0 {
				hoverButton, hoverShortcut = -1, -1
				w.Send(paint.Event{})
			}
			if m.HandleMouse(e, lay.stage) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if m.HandleKey(keys, e) {
				w.Send(paint.Event{})
			}
			if quit {
				stopPaint()
				return
			}
		case error:
			log.Print(e)
		}
	}
}

// export writes the flattened annotations to the output file.
func (a *AppState) export(base image.Image, polys []annotation.Polygon) error {
	f, err := os.Create(a.Output)
	if err != nil {
		return err
	}
	if err := render.EncodeExport(f, base, polys); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// toolbarActions are the editor buttons, in display order.
var toolbarActions = []struct{ label, action, class string }{
	{"N:Start Polygon", "start", ""},
	{"Enter:Finish", "finish", ""},
	{"Bksp:Undo", "undo", ""},
	{"Esc:Cancel", "cancel", ""},
	{"1:Class 1", "class1", "Class 1"},
	{"2:Class 2", "class2", "Class 2"},
	{"3:Class 3", "class3", "Class 3"},
	{"^L:Clear", "clear", ""},
	{"^S:Export", "export", ""},
}

func newToolbar(trigger func(string), th *theme.Theme) []*CacheButton {
	out := make([]*CacheButton, 0, len(toolbarActions))
	x := measure("polymark") + 12
	for _, ta := range toolbarActions {
		b := &ActionButton{label: ta.label, action: ta.action, class: ta.class, trigger: trigger, theme: th}
		b.SetRect(image.Rect(x, 2, x+b.Width(), toolbarHeight-2))
		x += b.Width() + 4
		out = append(out, &CacheButton{Button: b})
	}
	return out
}

// toolbarEnabled mirrors the disabled states of the editor's buttons.
func toolbarEnabled(m *Machine, toolbar []*CacheButton) []bool {
	out := make([]bool, len(toolbar))
	for i, cb := range toolbar {
		b := cb.Button.(*ActionButton)
		switch b.action {
		case "start":
			out[i] = m.CanStart()
		case "finish":
			out[i] = m.CanFinish()
		case "undo":
			out[i] = m.CanUndo()
		case "cancel":
			out[i] = m.CanCancel()
		case "clear":
			out[i] = m.CanClear()
		case "export":
			out[i] = m.CanExport()
		default:
			out[i] = m.Ready()
		}
	}
	return out
}

// shortcutButtons lays out the shortcut strip inside area.
func shortcutButtons(k *Keymap, area image.Rectangle, th *theme.Theme) []*Shortcut {
	var out []*Shortcut
	x := 6
	y := area.Min.Y + 18
	for _, b := range k.Bindings() {
		name := b.Name
		sc := &Shortcut{label: b.Label, action: func() { k.Trigger(name) }, theme: th}
		sc.SetRect(image.Rect(x-2, y-14, x+measure(b.Label)+2, y+4))
		x = sc.rect.Max.X + 8
		out = append(out, sc)
	}
	return out
}

type paintState struct {
	layout
	width, height int
	theme         *theme.Theme
	snap          Snapshot
	base          image.Image
	detail        string
	notice        string
	counter       string
	toolbar       []*CacheButton
	enabled       []bool
	shortcuts     []*Shortcut
	hoverButton   int
	pressedButton int
	hoverShortcut int
	message       string
	messageUntil  time.Time
}

// sceneCache keeps the last composited image so pan and zoom frames skip
// re-rendering the polygons.
type sceneCache struct {
	base  image.Image
	set   *annotation.Set
	scene *image.RGBA
}

func (c *sceneCache) get(base image.Image, set *annotation.Set) (*image.RGBA, error) {
	if c.scene != nil && c.base == base && reflect.DeepEqual(c.set, set) {
		return c.scene, nil
	}
	hl := render.Highlight{HoveredID: set.Hovered(), SelectedID: set.Selected()}
	scene, err := render.Render(base, set.Polygons, set.Current, hl)
	if err != nil {
		return nil, err
	}
	c.base, c.set, c.scene = base, set, scene
	return scene, nil
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState, scenes *sceneCache) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()

	var scene image.Image
	if st.base != nil && st.snap.Image.Status == ImageReady {
		img, err := scenes.get(st.base, st.snap.Set)
		if err != nil {
			log.Printf("render: %v", err)
		} else {
			scene = img
		}
	}
	if ctx.Err() != nil {
		return
	}
	render.Frame(dst, st.stage, scene, st.snap.View)
	if scene != nil {
		render.DrawBadges(dst, st.stage, st.snap.Set.Polygons, st.snap.View)
	}
	if ctx.Err() != nil {
		return
	}

	drawToolbar(dst, st)
	drawStatus(dst, st)
	drawShortcuts(dst, st)
	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, st.stage, st.message, st.theme)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawToolbar(dst *image.RGBA, st paintState) {
	draw.Draw(dst, st.toolbarArea, &image.Uniform{st.theme.Toolbar}, image.Point{}, draw.Src)
	drawText(dst, 4, 16, "polymark", st.theme.Text)
	for i, cb := range st.toolbar {
		state := StateDefault
		switch {
		case !st.enabled[i]:
			state = StateDisabled
		case i == st.pressedButton:
			state = StatePressed
		case i == st.hoverButton:
			state = StateHover
		}
		cb.Draw(dst, state)
	}
	// Underline the class picked for new polygons.
	for _, cb := range st.toolbar {
		ab := cb.Button.(*ActionButton)
		if ab.class == "" || ab.class != st.snap.Set.CurrentClass {
			continue
		}
		r := ab.Rect()
		line := image.Rect(r.Min.X+2, r.Max.Y-3, r.Max.X-2, r.Max.Y-1)
		draw.Draw(dst, line, &image.Uniform{annotation.ColorsFor(ab.class).Stroke}, image.Point{}, draw.Src)
	}
}

func drawStatus(dst *image.RGBA, st paintState) {
	draw.Draw(dst, st.statusArea, &image.Uniform{st.theme.Status}, image.Point{}, draw.Src)
	y := st.statusArea.Min.Y + 14
	x := drawText(dst, 4, y, st.snap.Status, st.theme.Text)
	if st.detail != "" {
		x = drawText(dst, x+12, y, st.detail, st.theme.MutedText)
	}
	if st.notice != "" {
		drawText(dst, x+12, y, st.notice, st.theme.Notice)
	}
	right := fmt.Sprintf("Polygons %s  Remaining %d  Zoom %d%%", st.counter, st.snap.Set.Remaining(), st.snap.View.Percent())
	drawText(dst, st.width-measure(right)-4, y, right, st.theme.Text)
}

func drawShortcuts(dst *image.RGBA, st paintState) {
	draw.Draw(dst, st.shortcutArea, &image.Uniform{st.theme.Toolbar}, image.Point{}, draw.Src)
	for i, sc := range st.shortcuts {
		state := StateDefault
		if i == st.hoverShortcut {
			state = StateHover
		}
		sc.Draw(dst, state)
	}
}

func drawMessage(dst *image.RGBA, stage image.Rectangle, msg string, th *theme.Theme) {
	d := &font.Drawer{Dst: dst, Src: &image.Uniform{th.Text}, Face: messageFace}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	c := stage.Min.Add(stage.Size().Div(2))
	px := c.X - wmsg/2
	py := c.Y - (ascent+descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, &image.Uniform{th.Overlay}, image.Point{}, draw.Over)
	drawRect(dst, rect, th.ButtonBorder, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}
