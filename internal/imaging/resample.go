package imaging

import (
	"image"

	disimg "github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Raster is a fixed-size grayscale pixel grid used for template
// comparison. Values are BT.601 luminance normalized to [0, 1].
type Raster struct {
	Width  int
	Height int
	Pix    []float64
}

// At returns the luminance at (x, y). No bounds checking.
func (r *Raster) At(x, y int) float64 {
	return r.Pix[y*r.Width+x]
}

// RasterizeRegion scales the pixels inside reg onto a w*h grayscale raster.
// Bilinear scaling keeps the cost proportional to the output size, which
// matters when every cell is compared against many templates.
func RasterizeRegion(img image.Image, reg Region, w, h int) *Raster {
	src := image.Rect(reg.X, reg.Y, reg.X+reg.Width, reg.Y+reg.Height)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
	return rasterFromRGBA(dst)
}

// RasterizeImage scales a whole image onto a w*h grayscale raster using
// Lanczos resampling. Used for template preparation, where quality matters
// more than speed because templates are rasterized once and cached.
func RasterizeImage(img image.Image, w, h int) *Raster {
	resized := disimg.Resize(img, w, h, disimg.Lanczos)
	out := &Raster{Width: w, Height: h, Pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := resized.NRGBAAt(x, y)
			out.Pix[y*w+x] = Luminance(c.R, c.G, c.B) / 255.0
		}
	}
	return out
}

// CropRegion extracts reg from img as a standalone image, clipped to the
// image bounds.
func CropRegion(img image.Image, reg Region) *image.NRGBA {
	return disimg.Crop(img, image.Rect(reg.X, reg.Y, reg.X+reg.Width, reg.Y+reg.Height))
}

func rasterFromRGBA(img *image.RGBA) *Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &Raster{Width: w, Height: h, Pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			out.Pix[y*w+x] = Luminance(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) / 255.0
		}
	}
	return out
}
