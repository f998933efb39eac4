package constants

import "strings"

// Encoding names a raster output encoding.
type Encoding string

const (
	JPEG Encoding = "jpeg"
	PNG  Encoding = "png"
	BMP  Encoding = "bmp"
	TIFF Encoding = "tiff"
)

// Encodings holds the supported output encodings.
var Encodings = []Encoding{JPEG, PNG, BMP, TIFF}

// extEncodings maps normalized file extensions to encodings.
var extEncodings = map[string]Encoding{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"bmp":  BMP,
	"tif":  TIFF,
	"tiff": TIFF,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ParseEncoding accepts an encoding name or extension ("jpg", ".JPEG", "tif").
func ParseEncoding(s string) (Encoding, bool) {
	enc, ok := extEncodings[NormalizeExt(strings.TrimSpace(s))]
	return enc, ok
}

// MapExtToEncoding returns the encoding for a file extension.
func MapExtToEncoding(ext string) (Encoding, bool) {
	return ParseEncoding(ext)
}

// Ext returns the canonical file extension (without dot).
func (e Encoding) Ext() string {
	switch e {
	case JPEG:
		return "jpg"
	case TIFF:
		return "tif"
	default:
		return string(e)
	}
}

// EncodingNames returns the supported encodings as strings.
func EncodingNames() []string {
	out := make([]string, len(Encodings))
	for i, e := range Encodings {
		out[i] = string(e)
	}
	return out
}

// IsPDFExt reports whether ext names a PDF file.
func IsPDFExt(ext string) bool {
	return NormalizeExt(ext) == "pdf"
}
