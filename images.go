package pdfaf

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// RawImage is an image payload lifted out of a PDF object stream, before any
// pixel interpretation. Data holds the bytes after stream filters have been
// undone; for container filters (DCT, JPX) it holds the still-encoded file.
type RawImage struct {
	// Name is the resource name of the image object, for log messages.
	Name string
	// Data is the stream content.
	Data []byte
	// Width and Height are the declared pixel dimensions.
	Width  int
	Height int
	// Filter is the last stream filter applied to the object.
	Filter string
	// Channels is the declared samples-per-pixel, or 0 when the object
	// does not say. The buffer size wins when the two disagree.
	Channels int
}

// containerFilters hold a complete image file after stream decoding.
var containerFilters = map[string]bool{
	"DCTDecode": true,
	"DCT":       true,
	"JPXDecode": true,
}

// rawFilters leave bare pixel samples after stream decoding.
var rawFilters = map[string]bool{
	"FlateDecode":     true,
	"Fl":              true,
	"LZWDecode":       true,
	"LZW":             true,
	"ASCII85Decode":   true,
	"A85":             true,
	"ASCIIHexDecode":  true,
	"AHx":             true,
	"RunLengthDecode": true,
	"RL":              true,
	"CCITTFaxDecode":  true,
	"CCF":             true,
	"JBIG2Decode":     true,
}

// ReconstructImage turns a raw payload into a decoded image. Container
// filters are decoded as complete image files; raw filters are reshaped from
// the declared dimensions. Either way the result carries 1, 3 or 4 channels,
// and a fully opaque alpha channel is dropped.
func ReconstructImage(raw RawImage) (image.Image, error) {
	switch {
	case containerFilters[raw.Filter]:
		return reconstructContainer(raw.Data)
	case rawFilters[raw.Filter]:
		return reconstructRaw(raw)
	}
	return nil, fmt.Errorf("unsupported image filter %q", raw.Filter)
}

func reconstructContainer(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding embedded image: %w", err)
	}
	return normalizeDecoded(img), nil
}

func reconstructRaw(raw RawImage) (image.Image, error) {
	pixels := raw.Width * raw.Height
	if pixels <= 0 || len(raw.Data) == 0 {
		return nil, fmt.Errorf("image %dx%d with %d bytes has no content",
			raw.Width, raw.Height, len(raw.Data))
	}
	if len(raw.Data)%pixels != 0 {
		return nil, fmt.Errorf("image buffer of %d bytes does not divide into %dx%d pixels",
			len(raw.Data), raw.Width, raw.Height)
	}
	// The buffer is the ground truth; a declared Channels that disagrees
	// with it is ignored.
	channels := len(raw.Data) / pixels
	switch channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, raw.Width, raw.Height))
		copy(img.Pix, raw.Data)
		return img, nil
	case 3:
		pix := make([]byte, len(raw.Data))
		copy(pix, raw.Data)
		return &rgbImage{pix: pix, width: raw.Width, height: raw.Height}, nil
	case 4:
		img := image.NewNRGBA(image.Rect(0, 0, raw.Width, raw.Height))
		copy(img.Pix, raw.Data)
		return dropOpaqueAlpha(img), nil
	}
	return nil, fmt.Errorf("image buffer implies %d channels per pixel, want 1, 3 or 4", channels)
}

// normalizeDecoded maps an arbitrary decoded image onto the 1, 3 or 4
// channel shapes the rest of the pipeline expects.
func normalizeDecoded(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.Gray, *image.Gray16:
		return img
	case *image.NRGBA:
		return dropOpaqueAlpha(src)
	case *image.RGBA, *image.NRGBA64, *image.RGBA64:
		return dropOpaqueAlpha(toNRGBA(img))
	case *image.Paletted:
		if palettedHasTransparency(src) {
			return dropOpaqueAlpha(toNRGBA(img))
		}
		return toRGB(img)
	default:
		return toRGB(img)
	}
}

func palettedHasTransparency(img *image.Paletted) bool {
	for _, c := range img.Palette {
		if _, _, _, a := c.RGBA(); a < 0xffff {
			return true
		}
	}
	return false
}

func toNRGBA(img image.Image) *image.NRGBA {
	dst := image.NewNRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

func toRGB(img image.Image) *rgbImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]byte, 0, w*h*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pix = append(pix, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return &rgbImage{pix: pix, width: w, height: h}
}

// dropOpaqueAlpha strips an alpha channel that is 0xFF everywhere. PDF
// rasterizers routinely emit such channels and they carry no information.
func dropOpaqueAlpha(img *image.NRGBA) image.Image {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xFF {
			return img
		}
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]byte, 0, w*h*3)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		pix = append(pix, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
	}
	return &rgbImage{pix: pix, width: w, height: h}
}

// rgbImage is a packed 24-bit RGB image. The stdlib has no such type and
// expanding to RGBA would bake in a fourth channel we just removed.
type rgbImage struct {
	pix    []byte
	width  int
	height int
}

func (p *rgbImage) ColorModel() color.Model { return color.NRGBAModel }

func (p *rgbImage) Bounds() image.Rectangle { return image.Rect(0, 0, p.width, p.height) }

func (p *rgbImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return color.NRGBA{}
	}
	i := (y*p.width + x) * 3
	return color.NRGBA{R: p.pix[i], G: p.pix[i+1], B: p.pix[i+2], A: 0xFF}
}

// EncodePNG re-encodes a reconstructed image losslessly for OCR engines that
// want a self-contained file.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding image as PNG: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("PNG encoding produced no bytes")
	}
	return buf.Bytes(), nil
}

// formatInnerImage renders recognized image text in the configured format.
// Empty text stays empty so blank images leave no trace in the page content.
func formatInnerImage(source, text string, format ImagesFormat) string {
	if text == "" {
		return ""
	}
	if source == "" {
		source = "#"
	}
	switch format {
	case ImagesMarkdown:
		return fmt.Sprintf("![%s](%s)", strings.ReplaceAll(text, "]", `\]`), source)
	case ImagesHTML:
		return fmt.Sprintf(`<img alt="%s" src="%s" />`, html.EscapeString(text), source)
	}
	return text
}

// wrapExtraBlock joins per-image texts into one paragraph-delimited block
// ready for MergeTextAndExtras. Blank entries vanish; an all-blank input
// produces nothing at all.
func wrapExtraBlock(parts []string) string {
	joined := joinNonEmpty(parts, "\n")
	if joined == "" {
		return ""
	}
	return "\n\n" + joined + "\n\n"
}
