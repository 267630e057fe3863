package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"country-color-map/backend/models"
	"country-color-map/backend/system"

	"golang.org/x/sync/singleflight"
)

// FeatureCollection is the subset of GeoJSON the map needs. Geometry is passed
// through untouched.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string                 `json:"type"`
	ID         json.RawMessage        `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

// Name is the "name" property used to look up colors
func (f Feature) Name() string {
	name, _ := f.Properties["name"].(string)
	return name
}

// BoundaryService loads the country boundary dataset once and keeps it for
// the life of the process. Failed loads are not cached.
type BoundaryService struct {
	source string
	client *http.Client

	group singleflight.Group

	mu     sync.RWMutex
	cached *FeatureCollection
}

// NewBoundaryService reads from an http(s) URL or a local file path
func NewBoundaryService(source string) *BoundaryService {
	return &BoundaryService{
		source: source,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Boundaries returns the dataset, fetching it on first use. Concurrent
// callers share one fetch.
func (b *BoundaryService) Boundaries() (*FeatureCollection, error) {
	b.mu.RLock()
	cached := b.cached
	b.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := b.group.Do("boundaries", func() (interface{}, error) {
		b.mu.RLock()
		cached := b.cached
		b.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		fc, err := b.fetch()
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cached = fc
		b.mu.Unlock()
		system.Info("Loaded %d country boundaries from %s", len(fc.Features), b.source)
		return fc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*FeatureCollection), nil
}

// Render styles every feature for mapping. When the dataset is unavailable it
// returns an empty collection together with the error, so the page still
// renders and the next call retries.
func (b *BoundaryService) Render(mapping models.ColorMapping) (*FeatureCollection, error) {
	fc, err := b.Boundaries()
	if err != nil {
		system.Warn("Rendering map without boundaries: %v", err)
		return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}, err
	}

	out := &FeatureCollection{
		Type:     fc.Type,
		Features: make([]Feature, len(fc.Features)),
	}
	for i, f := range fc.Features {
		props := make(map[string]interface{}, len(f.Properties)+2)
		for k, v := range f.Properties {
			props[k] = v
		}
		name := f.Name()
		props["style"] = StyleFor(name, mapping)
		if e, ok := mapping[name]; ok {
			props["color_name"] = e.ColorName
		}
		f.Properties = props
		out.Features[i] = f
	}
	return out, nil
}

func (b *BoundaryService) fetch() (*FeatureCollection, error) {
	if b.source == "" {
		return nil, errors.New("no boundary source configured")
	}

	var (
		body io.ReadCloser
		err  error
	)
	if strings.HasPrefix(b.source, "http://") || strings.HasPrefix(b.source, "https://") {
		resp, err := b.client.Get(b.source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch boundaries: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch boundaries: HTTP %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		body, err = os.Open(b.source)
		if err != nil {
			return nil, fmt.Errorf("failed to open boundaries: %w", err)
		}
	}
	defer body.Close()

	var fc FeatureCollection
	if err := json.NewDecoder(body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode boundaries: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("boundaries are a %q, want FeatureCollection", fc.Type)
	}
	return &fc, nil
}
