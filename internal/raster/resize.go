package raster

import (
	"image"
	"math"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// Interpolation names a resampling kernel.
type Interpolation string

const (
	NearestNeighbor Interpolation = "nearest"
	ApproxBiLinear  Interpolation = "approxbilinear"
	BiLinear        Interpolation = "bilinear"
	CatmullRom      Interpolation = "catmullrom"
	Lanczos3        Interpolation = "lanczos3"
)

// DefaultInterpolation is used by Resize and Thumbnail.
const DefaultInterpolation = CatmullRom

var interpolators = map[Interpolation]draw.Interpolator{
	NearestNeighbor: draw.NearestNeighbor,
	ApproxBiLinear:  draw.ApproxBiLinear,
	BiLinear:        draw.BiLinear,
	CatmullRom:      draw.CatmullRom,
}

// Interpolations lists the supported kernels.
func Interpolations() []string {
	return []string{string(NearestNeighbor), string(ApproxBiLinear), string(BiLinear), string(CatmullRom), string(Lanczos3)}
}

// ParseInterpolation maps a kernel name to an Interpolation; "" yields the default.
func ParseInterpolation(s string) (Interpolation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return DefaultInterpolation, nil
	case "lanczos":
		return Lanczos3, nil
	}
	in := Interpolation(s)
	if _, ok := interpolators[in]; ok || in == Lanczos3 {
		return in, nil
	}
	return "", common.InvalidArgumentErrorf("unknown interpolation %q (want one of %s)", s, strings.Join(Interpolations(), ", "))
}

// Resize returns a new image of exactly width x height pixels. The aspect
// ratio is not preserved and img is left untouched.
func Resize(img PageImage, width, height int) (PageImage, error) {
	return ResizeWith(img, ResizeSpec{Width: width, Height: height}, DefaultInterpolation)
}

// ResizeWith is Resize with an explicit kernel.
func ResizeWith(img PageImage, spec ResizeSpec, interp Interpolation) (PageImage, error) {
	if err := common.NewValidator().
		Field("width", spec.Width, common.Positive).
		Field("height", spec.Height, common.Positive).
		Error(); err != nil {
		return PageImage{}, err
	}
	if !img.valid() {
		return PageImage{}, common.InvalidArgumentError("image is empty")
	}
	if interp == "" {
		interp = DefaultInterpolation
	}

	var dst image.Image
	switch {
	case img.Width() == spec.Width && img.Height() == spec.Height:
		dst = cloneImage(img.Image)
	case interp == Lanczos3:
		dst = resize.Resize(uint(spec.Width), uint(spec.Height), img.Image, resize.Lanczos3)
	default:
		kernel, ok := interpolators[interp]
		if !ok {
			return PageImage{}, common.InvalidArgumentErrorf("unknown interpolation %q", interp)
		}
		rgba := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
		kernel.Scale(rgba, rgba.Bounds(), img.Image, img.Image.Bounds(), draw.Src, nil)
		dst = rgba
	}

	return PageImage{Source: img.Source, Index: img.Index, DPI: img.DPI, Image: dst}, nil
}

// Thumbnail scales img down to fit within maxWidth x maxHeight, keeping the
// aspect ratio. Images that already fit are copied unchanged.
func Thumbnail(img PageImage, maxWidth, maxHeight int, interp Interpolation) (PageImage, error) {
	if err := common.NewValidator().
		Field("max_width", maxWidth, common.Positive).
		Field("max_height", maxHeight, common.Positive).
		Error(); err != nil {
		return PageImage{}, err
	}
	if !img.valid() {
		return PageImage{}, common.InvalidArgumentError("image is empty")
	}
	return ResizeWith(img, FitWithin(img.Width(), img.Height(), maxWidth, maxHeight), interp)
}

// FitWithin returns the largest size with the aspect ratio of w x h that fits
// inside maxW x maxH without upscaling. Each side is at least one pixel.
func FitWithin(w, h, maxW, maxH int) ResizeSpec {
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	if scale >= 1 {
		return ResizeSpec{Width: w, Height: h}
	}
	return ResizeSpec{
		Width:  max(1, int(math.Round(float64(w)*scale))),
		Height: max(1, int(math.Round(float64(h)*scale))),
	}
}

func cloneImage(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
