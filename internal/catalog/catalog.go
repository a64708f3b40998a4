// Package catalog defines the game-data types consumed by the detection
// engine: catalog items, rarity tiers, and the border colors each tier
// paints around an item icon.
//
// The catalog itself is supplied by an external data-loading collaborator;
// this package only defines the shapes the engine consumes and the color
// classification used to recognize rarity borders on screen.
package catalog

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Rarity is a game-defined quality tier. Each tier has a distinct border
// color around the item icon, which the edge detector uses to find cell
// boundaries.
type Rarity int

const (
	RarityUnknown Rarity = iota
	RarityCommon
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = map[Rarity]string{
	RarityUnknown:   "unknown",
	RarityCommon:    "common",
	RarityUncommon:  "uncommon",
	RarityRare:      "rare",
	RarityEpic:      "epic",
	RarityLegendary: "legendary",
}

// String returns the lowercase tier name ("common" ... "legendary").
func (r Rarity) String() string {
	if s, ok := rarityNames[r]; ok {
		return s
	}
	return "unknown"
}

// ParseRarity maps a tier name to its Rarity. Unrecognized names map to
// RarityUnknown.
func ParseRarity(s string) Rarity {
	for r, name := range rarityNames {
		if name == s {
			return r
		}
	}
	return RarityUnknown
}

// Rarities lists all known tiers from common to legendary.
func Rarities() []Rarity {
	return []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}
}

// Item is one catalog entry: an entity the engine can detect on screen.
// ImageRef points at the reference icon asset for the template store.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	ImageRef string `json:"image"`
}

// Tier returns the parsed rarity of the item.
func (it Item) Tier() Rarity {
	return ParseRarity(it.Rarity)
}

// Reference hues for rarity border colors, in HSV degrees. Common borders
// are near-gray and are recognized by low saturation rather than hue.
var rarityHues = map[Rarity]float64{
	RarityUncommon:  120, // green
	RarityRare:      210, // blue
	RarityEpic:      275, // purple
	RarityLegendary: 30,  // orange
}

// Hue-distance tolerance for accepting a pixel as a rarity border color.
const hueTolerance = 35.0

// ClassifyBorderColor assigns an 8-bit RGB pixel to the rarity tier whose
// border color it most resembles, or RarityUnknown when the pixel does not
// look like any border.
//
// Classification works in HSV space: desaturated bright pixels are common
// borders, saturated pixels are matched to the nearest reference hue within
// a fixed tolerance. Dark pixels are never borders.
func ClassifyBorderColor(r, g, b uint8) Rarity {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()

	if v < 0.25 {
		return RarityUnknown
	}
	if s < 0.18 {
		if v > 0.45 {
			return RarityCommon
		}
		return RarityUnknown
	}

	best := RarityUnknown
	bestDist := hueTolerance
	for tier, ref := range rarityHues {
		d := hueDistance(h, ref)
		if d < bestDist {
			bestDist = d
			best = tier
		}
	}
	return best
}

// hueDistance is the circular distance between two hues in degrees.
func hueDistance(a, b float64) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}
