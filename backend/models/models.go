package models

import (
	"fmt"
	"strings"
)

// ColorName is one of the fixed highlight colors an admin can assign
type ColorName string

const (
	Red    ColorName = "Red"
	Green  ColorName = "Green"
	Yellow ColorName = "Yellow"
)

// Palette lists the assignable colors in picker order
var Palette = []ColorName{Red, Green, Yellow}

var paletteHex = map[ColorName]string{
	Red:    "#FF0000",
	Green:  "#00FF00",
	Yellow: "#FFFF00",
}

// Hex returns the fill color for the palette entry, or "" for unknown names
func (c ColorName) Hex() string {
	return paletteHex[c]
}

// Valid reports whether c is part of the palette
func (c ColorName) Valid() bool {
	_, ok := paletteHex[c]
	return ok
}

// ParseColorName matches a palette name exactly ("Red", not "red")
func ParseColorName(s string) (ColorName, error) {
	c := ColorName(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}

// CountryColorEntry is the persisted value for one colored country
type CountryColorEntry struct {
	Color     string    `json:"color"`      // "#RRGGBB"
	ColorName ColorName `json:"color_name"` // Red, Green, Yellow
}

// NewEntry builds the entry for a palette color
func NewEntry(c ColorName) CountryColorEntry {
	return CountryColorEntry{Color: c.Hex(), ColorName: c}
}

// Valid reports whether the entry's name is in the palette and its hex matches
func (e CountryColorEntry) Valid() bool {
	return e.ColorName.Valid() && strings.EqualFold(e.Color, e.ColorName.Hex())
}

// ColorMapping is the whole store keyed by country name
type ColorMapping map[string]CountryColorEntry

// Clone returns an independent copy
func (m ColorMapping) Clone() ColorMapping {
	out := make(ColorMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Session is the per-visitor authorization state
type Session struct {
	IsAdmin bool `json:"is_admin"`
}

// LegendItem is one row of the read-only color legend
type LegendItem struct {
	Country   string    `json:"country"`
	Color     string    `json:"color"`
	ColorName ColorName `json:"color_name"`
}
