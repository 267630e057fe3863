package services

import "country-color-map/backend/models"

// FeatureStyle is the Leaflet path style for one country polygon
type FeatureStyle struct {
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

// HighlightStyle is applied on hover regardless of coloring
var HighlightStyle = struct {
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}{Weight: 3, FillOpacity: 0.7}

// StyleFor returns the style of the feature named name under mapping
func StyleFor(name string, mapping models.ColorMapping) FeatureStyle {
	if e, ok := mapping[name]; ok {
		return FeatureStyle{
			FillColor:   e.Color,
			Color:       "black",
			Weight:      2,
			FillOpacity: 0.7,
		}
	}
	return FeatureStyle{
		FillColor:   "#FFFFFF",
		Color:       "black",
		Weight:      1,
		FillOpacity: 0.1,
	}
}
