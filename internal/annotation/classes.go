package annotation

import "image/color"

// DefaultClass is the label given to new polygons until the user picks
// another one.
const DefaultClass = "Class 1"

// Classes lists the selectable labels in display order.
var Classes = []string{"Class 1", "Class 2", "Class 3"}

// fillAlpha is the 22% opacity used for polygon interiors.
const fillAlpha = 56

// Colors pairs the solid stroke color of a class with its translucent fill.
type Colors struct {
	Stroke color.RGBA
	Fill   color.NRGBA
}

var classColors = map[string]color.RGBA{
	"Class 1": {255, 59, 48, 255},
	"Class 2": {52, 199, 89, 255},
	"Class 3": {0, 122, 255, 255},
}

// FallbackColor is used for labels outside the class table.
var FallbackColor = color.RGBA{175, 82, 222, 255}

// ColorsFor returns the palette entry for a class label. Unknown labels get
// the purple fallback.
func ColorsFor(class string) Colors {
	c, ok := classColors[class]
	if !ok {
		c = FallbackColor
	}
	return Colors{
		Stroke: c,
		Fill:   color.NRGBA{R: c.R, G: c.G, B: c.B, A: fillAlpha},
	}
}

// KnownClass reports whether class is one of Classes.
func KnownClass(class string) bool {
	_, ok := classColors[class]
	return ok
}

// ClassAt returns the class for a 1-based shortcut index.
func ClassAt(n int) (string, bool) {
	if n < 1 || n > len(Classes) {
		return "", false
	}
	return Classes[n-1], true
}
