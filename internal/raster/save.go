package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// SaveOptions tunes the encoders.
type SaveOptions struct {
	Quality int // JPEG quality 1..100; 0 = jpeg.DefaultQuality
}

// Save writes img to destinationPath in the given encoding, replacing any
// existing file. The parent directory must already exist.
func Save(img PageImage, destinationPath string, enc constants.Encoding) (OutputArtifact, error) {
	return SaveWith(img, destinationPath, enc, SaveOptions{})
}

// SaveWith is Save with encoder options.
func SaveWith(img PageImage, destinationPath string, enc constants.Encoding, opts SaveOptions) (OutputArtifact, error) {
	v := common.NewValidator().Field("destination_path", destinationPath, common.Required)
	if opts.Quality != 0 {
		v.Field("quality", opts.Quality, common.Range(1, 100))
	}
	if err := v.Error(); err != nil {
		return OutputArtifact{}, err
	}
	if !img.valid() {
		return OutputArtifact{}, common.InvalidArgumentError("image is empty")
	}
	norm, ok := constants.ParseEncoding(string(enc))
	if !ok {
		return OutputArtifact{}, common.InvalidArgumentErrorf("unsupported encoding %q", enc)
	}
	enc = norm

	// Encode into a sibling temp file and rename it over the destination; a
	// failed write never leaves a truncated file. New files get 0666 minus
	// the umask; a replaced file keeps its mode.
	dir, base := filepath.Split(destinationPath)
	if dir == "" {
		dir = "."
	}
	tmpName := filepath.Join(dir, "."+base+".tmp-"+uuid.NewString())
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return OutputArtifact{}, common.WriteError(fmt.Sprintf("create %q", destinationPath), err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, img.Image, enc, opts); err != nil {
		_ = tmp.Close()
		return OutputArtifact{}, err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return OutputArtifact{}, common.WriteError(fmt.Sprintf("write %q", destinationPath), err)
	}
	if err := tmp.Close(); err != nil {
		return OutputArtifact{}, common.WriteError(fmt.Sprintf("close %q", destinationPath), err)
	}
	if prev, err := os.Stat(destinationPath); err == nil && prev.Mode().IsRegular() {
		if err := os.Chmod(tmpName, prev.Mode().Perm()); err != nil {
			return OutputArtifact{}, common.WriteError(fmt.Sprintf("chmod %q", destinationPath), err)
		}
	}
	if err := os.Rename(tmpName, destinationPath); err != nil {
		return OutputArtifact{}, common.WriteError(fmt.Sprintf("replace %q", destinationPath), err)
	}
	committed = true

	st, err := os.Stat(destinationPath)
	if err != nil {
		return OutputArtifact{}, common.WriteError(fmt.Sprintf("stat %q", destinationPath), err)
	}
	return OutputArtifact{
		ID:        uuid.New(),
		Path:      destinationPath,
		Encoding:  enc,
		Size:      st.Size(),
		Width:     img.Width(),
		Height:    img.Height(),
		Source:    img.Source,
		Page:      img.Index,
		WrittenAt: st.ModTime(),
	}, nil
}

// Encode writes img to w in the given encoding.
func Encode(w io.Writer, img image.Image, enc constants.Encoding, opts SaveOptions) error {
	var err error
	switch enc {
	case constants.JPEG:
		q := opts.Quality
		if q == 0 {
			q = jpeg.DefaultQuality
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	case constants.PNG:
		err = png.Encode(w, img)
	case constants.BMP:
		err = bmp.Encode(w, img)
	case constants.TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return common.InvalidArgumentErrorf("unsupported encoding %q", enc)
	}
	if err != nil {
		return common.WriteError(fmt.Sprintf("encode %s", enc), err)
	}
	return nil
}

// OpenImage decodes a previously saved artifact back into a PageImage. The
// page index is 0 and Source is path.
func OpenImage(path string) (PageImage, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return PageImage{}, common.NotFoundError(fmt.Sprintf("image %q", path), err)
		}
		return PageImage{}, common.DecodeError(fmt.Sprintf("open image %q", path), err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return PageImage{}, common.DecodeError(fmt.Sprintf("decode image %q", path), err)
	}
	return PageImage{Source: path, Index: 0, Image: img}, nil
}
