package matching

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	disimg "github.com/disintegration/imaging"

	"gearsight/internal/catalog"
	"gearsight/internal/imaging"
)

// TemplateSize is the square raster size templates and cells are
// normalized to before scoring.
const TemplateSize = 32

// Template is one catalog entity's reference icon, prepared for matching:
// the decoded bitmap, its grayscale raster, and its color profile.
type Template struct {
	EntityID string
	Name     string
	Rarity   catalog.Rarity
	Image    *image.NRGBA
	Raster   *imaging.Raster
	Profile  ColorProfile
}

// AssetLoader resolves an ImageRef to a decoded image. Implementations
// are expected to be safe for concurrent use; template preparation fans
// out one goroutine per asset.
type AssetLoader interface {
	LoadAsset(ref string) (image.Image, error)
}

// DirLoader loads assets as files relative to a root directory.
type DirLoader struct {
	Root string
}

// LoadAsset opens and decodes the referenced file.
func (d DirLoader) LoadAsset(ref string) (image.Image, error) {
	img, err := disimg.Open(filepath.Join(d.Root, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to open asset %s: %w", ref, err)
	}
	return img, nil
}

// Store loads and indexes templates by rarity tier and coarse dominant
// color. It is owned by the caller and carries no hidden global state; an
// explicit Reset restores it to the unloaded state for test isolation.
type Store struct {
	mu        sync.RWMutex
	templates []*Template
	byRarity  map[catalog.Rarity][]*Template
	byHue     map[Hue][]*Template
	loaded    bool
	log       *slog.Logger
}

// NewStore creates an empty template store. A nil logger selects
// slog.Default.
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		byRarity: make(map[catalog.Rarity][]*Template),
		byHue:    make(map[Hue][]*Template),
		log:      log,
	}
}

// Loaded reports whether a catalog has been prepared.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Count returns the number of prepared templates.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// Reset discards all templates and marks the store unloaded.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = nil
	s.byRarity = make(map[catalog.Rarity][]*Template)
	s.byHue = make(map[Hue][]*Template)
	s.loaded = false
}

// Load prepares templates for every catalog item with an image asset.
//
// Decoding fans out one goroutine per asset and joins on completion; each
// task captures its own error. A failed decode is retried once with an
// alternate image extension, then logged and excluded — a single bad
// asset never aborts the batch. Load returns the number of templates
// prepared and the per-asset errors of the excluded ones.
func (s *Store) Load(items []catalog.Item, loader AssetLoader) (int, []error) {
	type outcome struct {
		tmpl *Template
		err  error
	}
	outcomes := make([]outcome, len(items))

	var wg sync.WaitGroup
	for i, it := range items {
		if it.ImageRef == "" {
			outcomes[i].err = fmt.Errorf("item %s has no image asset", it.ID)
			continue
		}
		wg.Add(1)
		go func(i int, it catalog.Item) {
			defer wg.Done()
			tmpl, err := prepareTemplate(it, loader)
			outcomes[i] = outcome{tmpl: tmpl, err: err}
		}(i, it)
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	var failures []error
	for _, o := range outcomes {
		if o.err != nil {
			s.log.Warn("template excluded", "error", o.err)
			failures = append(failures, o.err)
			continue
		}
		if o.tmpl == nil {
			continue
		}
		s.templates = append(s.templates, o.tmpl)
		s.byRarity[o.tmpl.Rarity] = append(s.byRarity[o.tmpl.Rarity], o.tmpl)
		s.byHue[o.tmpl.Profile.Dominant] = append(s.byHue[o.tmpl.Profile.Dominant], o.tmpl)
	}
	s.loaded = true
	return len(s.templates), failures
}

// prepareTemplate decodes, normalizes, and profiles one asset. On decode
// failure it retries once with the alternate extension (.png <-> .jpg).
func prepareTemplate(it catalog.Item, loader AssetLoader) (*Template, error) {
	img, err := loader.LoadAsset(it.ImageRef)
	if err != nil {
		alt := alternateRef(it.ImageRef)
		if alt == "" {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}
		img, err = loader.LoadAsset(alt)
		if err != nil {
			return nil, fmt.Errorf("item %s: decode failed for both formats: %w", it.ID, err)
		}
	}

	normalized := disimg.Resize(img, TemplateSize, TemplateSize, disimg.Lanczos)
	reg := imaging.Region{Width: TemplateSize, Height: TemplateSize}

	return &Template{
		EntityID: it.ID,
		Name:     it.Name,
		Rarity:   it.Tier(),
		Image:    normalized,
		Raster:   imaging.RasterizeImage(img, TemplateSize, TemplateSize),
		Profile:  ProfileRegion(normalized, reg),
	}, nil
}

// alternateRef swaps the asset extension between .png and .jpg, returning
// "" when neither applies.
func alternateRef(ref string) string {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".png":
		return strings.TrimSuffix(ref, filepath.Ext(ref)) + ".jpg"
	case ".jpg", ".jpeg":
		return strings.TrimSuffix(ref, filepath.Ext(ref)) + ".png"
	default:
		return ""
	}
}

// Candidates returns the template set a strategy should score for a cell,
// narrowed by the strategy's filter mode. An unknown cell rarity or an
// empty filtered set falls back to the full template list: filtering
// trims work, it must never hide the only correct answer.
func (s *Store) Candidates(strategy Strategy, cellRarity catalog.Rarity, cellProfile ColorProfile) []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch strategy.ColorFiltering {
	case ColorFilterRarityFirst:
		if cellRarity != catalog.RarityUnknown {
			if set := s.byRarity[cellRarity]; len(set) > 0 {
				return set
			}
		}
	case ColorFilterColorFirst:
		var set []*Template
		for _, t := range s.templates {
			if cellProfile.Compatible(t.Profile, strategy.ColorAnalysis) {
				set = append(set, t)
			}
		}
		if len(set) > 0 {
			return set
		}
	}
	return s.templates
}

// All returns every prepared template.
func (s *Store) All() []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates
}
