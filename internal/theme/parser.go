package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strconv"
	"strings"
)

var colorType = reflect.TypeOf(color.RGBA{})

// Parse reads a theme file. Each line is "key: value" where value is
// #RRGGBB or #RRGGBBAA. An optional "base: dark" line picks the built-in
// theme the file overrides; it must come before any color.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	val := reflect.ValueOf(t).Elem()
	fields := fieldsByTag(val.Type())

	scanner := bufio.NewScanner(r)
	lineNo := 0
	colors := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key: value", lineNo)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if key == "base" {
			if colors > 0 {
				return nil, fmt.Errorf("line %d: base must precede colors", lineNo)
			}
			b, ok := Builtin(value)
			if !ok {
				return nil, fmt.Errorf("line %d: unknown base theme %q", lineNo, value)
			}
			name := t.Name
			*t = *b
			t.Name = name
			continue
		}

		i, ok := fields[key]
		if !ok {
			continue
		}
		field := val.Field(i)
		switch field.Type() {
		case colorType:
			col, err := parseColor(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid color for %s: %w", lineNo, key, err)
			}
			field.Set(reflect.ValueOf(col))
			colors++
		default:
			field.SetString(value)
		}
	}
	return t, scanner.Err()
}

func fieldsByTag(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("theme"); tag != "" {
			out[tag] = i
		}
	}
	return out
}

func parseColor(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("color must start with #")
	}
	switch len(hex) {
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex length")
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
