// Package render turns tickets into display text and styles that text
// according to explicit view settings.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named background/foreground pair for the display area.
type Theme struct {
	Name       string
	Background lipgloss.Color
	Foreground lipgloss.Color
}

// Themes lists the built-in color modes in menu order.
var Themes = []Theme{
	{Name: "dark", Background: lipgloss.Color("#000000"), Foreground: lipgloss.Color("#008000")},
	{Name: "light", Background: lipgloss.Color("#ffffff"), Foreground: lipgloss.Color("#000000")},
	{Name: "sepia", Background: lipgloss.Color("#f4ecd8"), Foreground: lipgloss.Color("#4e463f")},
	{Name: "pastel", Background: lipgloss.Color("#ffefd5"), Foreground: lipgloss.Color("#a1c3d1")},
	{Name: "neon", Background: lipgloss.Color("#2c2c54"), Foreground: lipgloss.Color("#00ff00")},
	{Name: "solarized", Background: lipgloss.Color("#fdf6e3"), Foreground: lipgloss.Color("#657b83")},
	{Name: "high-contrast", Background: lipgloss.Color("#ffffff"), Foreground: lipgloss.Color("#000000")},
}

// ThemeByName returns the built-in theme with the given name.
func ThemeByName(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Align is the horizontal alignment of the display text.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// ParseAlign validates an alignment name.
func ParseAlign(s string) (Align, error) {
	switch a := Align(strings.ToLower(s)); a {
	case AlignLeft, AlignCenter, AlignRight:
		return a, nil
	}
	return "", fmt.Errorf("unknown alignment %q (left|center|right)", s)
}

func (a Align) position() lipgloss.Position {
	switch a {
	case AlignCenter:
		return lipgloss.Center
	case AlignRight:
		return lipgloss.Right
	default:
		return lipgloss.Left
	}
}

const (
	DefaultFontSize = 12
	MinFontSize     = 8
	fontStep        = 2
)

// Settings describes how the display area is drawn. It is a value: every
// change returns a new Settings.
type Settings struct {
	Theme     string
	FontSize  int
	Bold      bool
	Align     Align
	TextColor string // overrides the theme foreground when set
}

// Default returns the reset view: dark theme, size 12, normal weight, left aligned.
func Default() Settings {
	return Settings{Theme: "dark", FontSize: DefaultFontSize, Align: AlignLeft}
}

// Reset returns Default.
func (s Settings) Reset() Settings {
	return Default()
}

// IncreaseFont grows the font by one step.
func (s Settings) IncreaseFont() Settings {
	s.FontSize += fontStep
	return s
}

// DecreaseFont shrinks the font by one step, never below MinFontSize.
func (s Settings) DecreaseFont() Settings {
	s.FontSize = max(s.FontSize-fontStep, MinFontSize)
	return s
}

// ToggleBold flips the font weight.
func (s Settings) ToggleBold() Settings {
	s.Bold = !s.Bold
	return s
}

// WithAlign sets the alignment.
func (s Settings) WithAlign(a Align) Settings {
	s.Align = a
	return s
}

// WithTheme switches to a named theme. The text color override is cleared.
func (s Settings) WithTheme(name string) (Settings, error) {
	if _, ok := ThemeByName(name); !ok {
		return s, fmt.Errorf("unknown theme %q", name)
	}
	s.Theme = name
	s.TextColor = ""
	return s, nil
}

// NextTheme cycles to the theme after the current one.
func (s Settings) NextTheme() Settings {
	next := 0
	for i, t := range Themes {
		if t.Name == s.Theme {
			next = (i + 1) % len(Themes)
			break
		}
	}
	s.Theme = Themes[next].Name
	s.TextColor = ""
	return s
}

// WithTextColor overrides the foreground color.
func (s Settings) WithTextColor(c string) (Settings, error) {
	color, err := ParseColor(c)
	if err != nil {
		return s, err
	}
	s.TextColor = color
	return s, nil
}

// Validate reports unknown themes, alignments, or colors.
func (s Settings) Validate() error {
	if _, ok := ThemeByName(s.Theme); !ok {
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
	if _, err := ParseAlign(string(s.Align)); err != nil {
		return err
	}
	if s.FontSize < MinFontSize {
		return fmt.Errorf("font size %d is below the minimum of %d", s.FontSize, MinFontSize)
	}
	if s.TextColor != "" {
		if _, err := ParseColor(s.TextColor); err != nil {
			return err
		}
	}
	return nil
}

var colorNames = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"gray":    "#808080",
	"grey":    "#808080",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
}

var (
	hexColor  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	ansiColor = regexp.MustCompile(`^[0-9]{1,3}$`)
)

// ParseColor accepts a #rrggbb value, an ANSI 256 color index, or a basic color name.
func ParseColor(c string) (string, error) {
	c = strings.TrimSpace(c)
	if hex, ok := colorNames[strings.ToLower(c)]; ok {
		return hex, nil
	}
	if hexColor.MatchString(c) {
		return strings.ToLower(c), nil
	}
	if ansiColor.MatchString(c) {
		if n, err := strconv.Atoi(c); err == nil && n <= 255 {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown color %q", c)
}
