package matching

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"gearsight/internal/imaging"
)

// Hue is a named coarse color bucket used to index templates and filter
// match candidates.
type Hue int

const (
	HueNeutral Hue = iota // grays, desaturated pixels
	HueRed
	HueOrange
	HueYellow
	HueGreen
	HueCyan
	HueBlue
	HuePurple
	HueMagenta
)

var hueNames = [...]string{
	"neutral", "red", "orange", "yellow", "green", "cyan", "blue", "purple", "magenta",
}

func (h Hue) String() string {
	if int(h) < len(hueNames) {
		return hueNames[h]
	}
	return "neutral"
}

// ColorProfile is the multi-region dominant-hue signature of a template
// or cell: corners, center, border ring, and the overall dominant hue.
type ColorProfile struct {
	TopLeft     Hue `json:"top_left"`
	TopRight    Hue `json:"top_right"`
	BottomLeft  Hue `json:"bottom_left"`
	BottomRight Hue `json:"bottom_right"`
	Center      Hue `json:"center"`
	Border      Hue `json:"border"`
	Dominant    Hue `json:"dominant"`
}

// classifyHue maps an 8-bit RGB pixel to its coarse hue bucket.
// Dark or desaturated pixels land in HueNeutral.
func classifyHue(r, g, b uint8) Hue {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	if v < 0.15 || s < 0.2 {
		return HueNeutral
	}
	switch {
	case h < 20 || h >= 340:
		return HueRed
	case h < 45:
		return HueOrange
	case h < 70:
		return HueYellow
	case h < 160:
		return HueGreen
	case h < 200:
		return HueCyan
	case h < 255:
		return HueBlue
	case h < 290:
		return HuePurple
	default:
		return HueMagenta
	}
}

// ProfileRegion computes the color profile of a rectangular region.
//
// Each sub-region (four corner quadrants, the center, and the border
// ring) is reduced to its most frequent hue bucket; Dominant is the most
// frequent bucket over the whole region.
func ProfileRegion(img image.Image, reg imaging.Region) ColorProfile {
	w, h := reg.Width, reg.Height
	if w < 4 || h < 4 {
		return ColorProfile{}
	}
	hw, hh := w/2, h/2
	qw, qh := w/3, h/3

	sub := func(x, y, sw, sh int) imaging.Region {
		return imaging.Region{X: reg.X + x, Y: reg.Y + y, Width: sw, Height: sh}
	}

	var overall hueCounter
	p := ColorProfile{
		TopLeft:     dominantHue(img, sub(0, 0, qw, qh), &overall),
		TopRight:    dominantHue(img, sub(w-qw, 0, qw, qh), &overall),
		BottomLeft:  dominantHue(img, sub(0, h-qh, qw, qh), &overall),
		BottomRight: dominantHue(img, sub(w-qw, h-qh, qw, qh), &overall),
		Center:      dominantHue(img, sub(hw-qw/2, hh-qh/2, qw, qh), &overall),
		Border:      borderHue(img, reg, &overall),
	}
	p.Dominant = overall.dominant()
	return p
}

type hueCounter [HueMagenta + 1]int

func (c *hueCounter) add(h Hue) { c[h]++ }

// dominant returns the most frequent non-neutral hue, or HueNeutral when
// nothing colorful was counted. Neutral pixels dominate most icons'
// backgrounds, so they only win in the absence of any color.
func (c *hueCounter) dominant() Hue {
	best := HueNeutral
	bestCount := 0
	for h := HueRed; h <= HueMagenta; h++ {
		if c[h] > bestCount {
			best = h
			bestCount = c[h]
		}
	}
	return best
}

// dominantHue counts hues inside reg and returns the winner, also feeding
// the overall counter.
func dominantHue(img image.Image, reg imaging.Region, overall *hueCounter) Hue {
	var local hueCounter
	for y := reg.Y; y < reg.Y+reg.Height; y++ {
		for x := reg.X; x < reg.X+reg.Width; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			h := classifyHue(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
			local.add(h)
			overall.add(h)
		}
	}
	return local.dominant()
}

// borderHue samples the 2-pixel ring just inside the region boundary.
func borderHue(img image.Image, reg imaging.Region, overall *hueCounter) Hue {
	var local hueCounter
	thickness := 2
	x2, y2 := reg.X+reg.Width, reg.Y+reg.Height
	for y := reg.Y; y < y2; y++ {
		edgeRow := y < reg.Y+thickness || y >= y2-thickness
		for x := reg.X; x < x2; x++ {
			if !edgeRow && x >= reg.X+thickness && x < x2-thickness {
				continue
			}
			r16, g16, b16, _ := img.At(x, y).RGBA()
			h := classifyHue(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
			local.add(h)
			overall.add(h)
		}
	}
	return local.dominant()
}

// Compatible reports whether two profiles plausibly describe the same
// icon under the given analysis granularity. Single-dominant mode only
// compares the overall dominant hue; multi-region mode requires a
// majority of the sub-regions to agree.
func (p ColorProfile) Compatible(other ColorProfile, mode ColorAnalysisMode) bool {
	switch mode {
	case ColorAnalysisSingleDominant:
		return p.Dominant == other.Dominant
	case ColorAnalysisMultiRegion:
		agree := 0
		pairs := [][2]Hue{
			{p.TopLeft, other.TopLeft},
			{p.TopRight, other.TopRight},
			{p.BottomLeft, other.BottomLeft},
			{p.BottomRight, other.BottomRight},
			{p.Center, other.Center},
		}
		for _, pair := range pairs {
			if pair[0] == pair[1] {
				agree++
			}
		}
		return agree >= 3
	default:
		return true
	}
}
