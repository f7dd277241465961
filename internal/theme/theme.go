// Package theme holds the colors of the annotation window's chrome. Polygon
// class colors are fixed and live with the annotations.
package theme

import (
	"image/color"
	"sort"
	"strings"
)

// Theme defines the color palette for the window UI.
type Theme struct {
	Name string `theme:"name"`

	// Bars
	Toolbar   color.RGBA `theme:"toolbar"`
	Status    color.RGBA `theme:"status"`
	Text      color.RGBA `theme:"text"`
	MutedText color.RGBA `theme:"muted_text"`
	Notice    color.RGBA `theme:"notice"`

	// Buttons
	Button         color.RGBA `theme:"button"`
	ButtonHover    color.RGBA `theme:"button_hover"`
	ButtonPress    color.RGBA `theme:"button_press"`
	ButtonDisabled color.RGBA `theme:"button_disabled"`
	ButtonText     color.RGBA `theme:"button_text"`
	DisabledText   color.RGBA `theme:"disabled_text"`
	ButtonBorder   color.RGBA `theme:"button_border"`

	// Message overlay
	Overlay color.RGBA `theme:"overlay"`
}

// Default returns the light theme.
func Default() *Theme {
	return &Theme{
		Name:           "default",
		Toolbar:        color.RGBA{220, 220, 220, 255},
		Status:         color.RGBA{240, 240, 240, 255},
		Text:           color.RGBA{0, 0, 0, 255},
		MutedText:      color.RGBA{60, 60, 60, 255},
		Notice:         color.RGBA{180, 40, 40, 255},
		Button:         color.RGBA{200, 200, 200, 255},
		ButtonHover:    color.RGBA{180, 180, 180, 255},
		ButtonPress:    color.RGBA{150, 150, 150, 255},
		ButtonDisabled: color.RGBA{210, 210, 210, 255},
		ButtonText:     color.RGBA{0, 0, 0, 255},
		DisabledText:   color.RGBA{140, 140, 140, 255},
		ButtonBorder:   color.RGBA{120, 120, 120, 255},
		Overlay:        color.RGBA{255, 255, 255, 230},
	}
}

// Dark returns a dark theme matching the stage backdrop.
func Dark() *Theme {
	return &Theme{
		Name:           "dark",
		Toolbar:        color.RGBA{36, 36, 40, 255},
		Status:         color.RGBA{28, 28, 32, 255},
		Text:           color.RGBA{230, 230, 230, 255},
		MutedText:      color.RGBA{170, 170, 175, 255},
		Notice:         color.RGBA{255, 120, 110, 255},
		Button:         color.RGBA{58, 58, 64, 255},
		ButtonHover:    color.RGBA{76, 76, 84, 255},
		ButtonPress:    color.RGBA{96, 96, 106, 255},
		ButtonDisabled: color.RGBA{44, 44, 50, 255},
		ButtonText:     color.RGBA{235, 235, 235, 255},
		DisabledText:   color.RGBA{110, 110, 116, 255},
		ButtonBorder:   color.RGBA{20, 20, 22, 255},
		Overlay:        color.RGBA{28, 28, 32, 230},
	}
}

// HighContrast returns a black and white theme.
func HighContrast() *Theme {
	return &Theme{
		Name:           "high_contrast",
		Toolbar:        color.RGBA{0, 0, 0, 255},
		Status:         color.RGBA{0, 0, 0, 255},
		Text:           color.RGBA{255, 255, 255, 255},
		MutedText:      color.RGBA{255, 255, 0, 255},
		Notice:         color.RGBA{255, 80, 80, 255},
		Button:         color.RGBA{0, 0, 0, 255},
		ButtonHover:    color.RGBA{0, 0, 160, 255},
		ButtonPress:    color.RGBA{0, 0, 255, 255},
		ButtonDisabled: color.RGBA{0, 0, 0, 255},
		ButtonText:     color.RGBA{255, 255, 255, 255},
		DisabledText:   color.RGBA{128, 128, 128, 255},
		ButtonBorder:   color.RGBA{255, 255, 255, 255},
		Overlay:        color.RGBA{0, 0, 0, 240},
	}
}

var builtin = map[string]func() *Theme{
	"default":       Default,
	"light":         Default,
	"dark":          Dark,
	"high_contrast": HighContrast,
}

// Builtin returns a copy of a built-in theme by case-insensitive name.
func Builtin(name string) (*Theme, bool) {
	fn, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Names lists the built-in theme names.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for n := range builtin {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
