package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gardenplanner/pkg/domain"
)

// CatalogSource yields the raw catalog document: a JSON array of plants.
type CatalogSource interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type fileSource struct{ path string }

// FileCatalogSource reads the catalog from a local file.
func FileCatalogSource(path string) CatalogSource { return fileSource{path: path} }

func (s fileSource) Name() string { return s.path }

func (s fileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(filepath.Clean(s.path))
}

type httpSource struct {
	url    string
	client *http.Client
}

// HTTPCatalogSource fetches the catalog with a GET request. A nil client
// uses http.DefaultClient.
func HTTPCatalogSource(url string, client *http.Client) CatalogSource {
	if client == nil {
		client = http.DefaultClient
	}
	return httpSource{url: url, client: client}
}

func (s httpSource) Name() string { return s.url }

func (s httpSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

type bytesSource struct {
	name string
	data []byte
}

// BytesCatalogSource serves an in-memory document, e.g. an embedded file.
func BytesCatalogSource(name string, data []byte) CatalogSource {
	return bytesSource{name: name, data: data}
}

func (s bytesSource) Name() string { return s.name }

func (s bytesSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// rawPlant mirrors the catalog document. Month fields have alternative names
// in older catalogs; nil means the field was absent.
type rawPlant struct {
	ID               flexibleID `json:"id"`
	Name             string     `json:"name"`
	LatinName        string     `json:"latin_name"`
	Category         *string    `json:"category"`
	Source           string     `json:"source"`
	SeedlingMonths   []int      `json:"seedling_months"`
	SowIndoorMonths  []int      `json:"sow_indoor_months"`
	SowingMonths     []int      `json:"sowing_months"`
	SowOutdoorMonths []int      `json:"sow_outdoor_months"`
	HarvestMonths    []int      `json:"harvest_months"`
	BloomMonths      []int      `json:"bloom_months"`
	Description      string     `json:"description"`
	Sun              string     `json:"sun"`
	Water            string     `json:"water"`
	SpacingCM        *float64   `json:"spacing_cm"`
	HeightCM         *float64   `json:"height_cm"`
}

// Catalog is the immutable plant list loaded once per session.
type Catalog struct {
	plants []domain.Plant
	byID   map[string]int
}

// NewCatalog builds a catalog from already normalized plants. Later
// duplicates of an id are ignored.
func NewCatalog(plants []domain.Plant) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(plants))}
	for _, p := range plants {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = len(c.plants)
		c.plants = append(c.plants, clonePlant(p))
	}
	return c
}

// LoadCatalog reads and normalizes the catalog. Every failure is returned as
// *domain.CatalogLoadError and is not retried.
func LoadCatalog(ctx context.Context, src CatalogSource, logger Logger) (*Catalog, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	fail := func(err error) (*Catalog, error) {
		return nil, &domain.CatalogLoadError{Source: src.Name(), Err: err}
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fail(err)
	}
	var raws []rawPlant
	if err := json.Unmarshal(data, &raws); err != nil {
		return fail(err)
	}
	plants := make([]domain.Plant, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for i, raw := range raws {
		p, dropped := normalizePlant(raw)
		if p.ID == "" {
			logger.Warn("skipping catalog entry without id", "index", i, "name", raw.Name)
			continue
		}
		if _, dup := seen[p.ID]; dup {
			logger.Warn("skipping duplicate catalog id", "id", p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		if dropped > 0 {
			logger.Warn("dropped out-of-range months", "id", p.ID, "count", dropped)
		}
		plants = append(plants, p)
	}
	if len(raws) > 0 && len(plants) == 0 {
		return fail(errors.New("no usable plants"))
	}
	logger.Info("catalog loaded", "source", src.Name(), "plants", len(plants))
	return NewCatalog(plants), nil
}

func normalizePlant(raw rawPlant) (domain.Plant, int) {
	category := domain.DefaultCategory
	if raw.Category != nil && strings.TrimSpace(*raw.Category) != "" {
		category = strings.TrimSpace(*raw.Category)
	}
	seedling, d1 := domain.NormalizeMonths(firstPresent(raw.SeedlingMonths, raw.SowIndoorMonths))
	sowing, d2 := domain.NormalizeMonths(firstPresent(raw.SowingMonths, raw.SowOutdoorMonths))
	harvest, d3 := domain.NormalizeMonths(firstPresent(raw.HarvestMonths, raw.BloomMonths))
	return domain.Plant{
		ID:             strings.TrimSpace(string(raw.ID)),
		Name:           strings.TrimSpace(raw.Name),
		LatinName:      strings.TrimSpace(raw.LatinName),
		Category:       category,
		Source:         strings.TrimSpace(raw.Source),
		SeedlingMonths: seedling,
		SowingMonths:   sowing,
		HarvestMonths:  harvest,
		Description:    raw.Description,
		Sun:            raw.Sun,
		Water:          raw.Water,
		SpacingCM:      raw.SpacingCM,
		HeightCM:       raw.HeightCM,
	}, d1 + d2 + d3
}

// firstPresent returns the first slice that was present in the document.
func firstPresent(candidates ...[]int) []int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// Plants returns every plant in document order.
func (c *Catalog) Plants() []domain.Plant {
	out := make([]domain.Plant, len(c.plants))
	for i, p := range c.plants {
		out[i] = clonePlant(p)
	}
	return out
}

// Len returns the number of plants.
func (c *Catalog) Len() int { return len(c.plants) }

// Lookup resolves a plant id. A miss is normal: plans and favorites may
// reference plants that were removed from the catalog.
func (c *Catalog) Lookup(id string) (domain.Plant, bool) {
	if c == nil {
		return domain.Plant{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.Plant{}, false
	}
	return clonePlant(c.plants[i]), true
}

// DisplayName returns the plant name, or the raw id for unknown plants.
func (c *Catalog) DisplayName(id string) string {
	if p, ok := c.Lookup(id); ok && p.Name != "" {
		return p.Name
	}
	return id
}

// Sources returns the distinct non-empty sources in collation order.
func (c *Catalog) Sources() []string {
	return c.distinct(func(p domain.Plant) string { return p.Source })
}

// Categories returns the distinct categories in collation order.
func (c *Catalog) Categories() []string {
	return c.distinct(func(p domain.Plant) string { return p.Category })
}

func (c *Catalog) distinct(field func(domain.Plant) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.plants {
		v := field(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	col := newCollator()
	slices.SortFunc(out, func(a, b string) int { return compareNames(col, a, b) })
	return out
}

func clonePlant(p domain.Plant) domain.Plant {
	p.SeedlingMonths = slices.Clone(p.SeedlingMonths)
	p.SowingMonths = slices.Clone(p.SowingMonths)
	p.HarvestMonths = slices.Clone(p.HarvestMonths)
	if p.SeedlingMonths == nil {
		p.SeedlingMonths = []int{}
	}
	if p.SowingMonths == nil {
		p.SowingMonths = []int{}
	}
	if p.HarvestMonths == nil {
		p.HarvestMonths = []int{}
	}
	return p
}
