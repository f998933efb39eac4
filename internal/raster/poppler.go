package raster

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// PopplerConfig configures the poppler command-line backend.
type PopplerConfig struct {
	Pdftoppm       string        // binary name or absolute path; if empty -> "pdftoppm"
	Pdfinfo        string        // binary name or absolute path; if empty -> "pdfinfo"
	ScratchDir     string        // parent of per-session temp dirs; "" -> os.TempDir()
	CommandTimeout time.Duration // 0 = no per-command timeout
}

// PopplerBackend renders pages by shelling out to pdftoppm, one page per
// invocation, into a scratch directory owned by the session.
type PopplerBackend struct {
	cfg    PopplerConfig
	runner Runner
	logger *slog.Logger
}

func NewPopplerBackend(cfg PopplerConfig, logger *slog.Logger) *PopplerBackend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	logger = logger.With("backend", "pdftoppm")
	return &PopplerBackend{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner replaces the command runner.
func (b *PopplerBackend) WithRunner(r Runner) *PopplerBackend {
	b.runner = r
	return b
}

func (b *PopplerBackend) Name() string { return "pdftoppm" }

func (b *PopplerBackend) Open(ctx context.Context, path string) (Session, error) {
	out, err := b.run(ctx, Command{Name: b.cfg.Pdfinfo, Args: []string{path}})
	if err != nil {
		return nil, err
	}
	n, err := parsePageCount(out)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(b.cfg.ScratchDir, "pdfraster-*")
	if err != nil {
		return nil, common.WriteError("create scratch dir", err)
	}
	b.logger.Debug("document opened", "path", path, "pages", n, "scratch", tmpDir)
	return &popplerSession{b: b, path: path, pages: n, tmpDir: tmpDir}, nil
}

func (b *PopplerBackend) run(ctx context.Context, cmd Command) ([]byte, error) {
	if b.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.CommandTimeout)
		defer cancel()
	}
	return b.runner.Run(ctx, cmd)
}

// parsePageCount reads the "Pages:" line of pdfinfo output.
func parsePageCount(out []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("pdfinfo: bad page count %q", strings.TrimSpace(val))
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo: no page count in output")
}

type popplerSession struct {
	b      *PopplerBackend
	path   string
	pages  int
	tmpDir string
}

func (s *popplerSession) NumPages() int { return s.pages }

func (s *popplerSession) Render(ctx context.Context, index, dpi int) (image.Image, error) {
	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <tmp/page-i>  -> <tmp/page-i>.png
	prefix := filepath.Join(s.tmpDir, fmt.Sprintf("page-%d", index))
	page := strconv.Itoa(index + 1)
	_, err := s.b.run(ctx, Command{Name: s.b.cfg.Pdftoppm, Args: []string{
		"-f", page, "-l", page,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		s.path, prefix,
	}})
	if err != nil {
		return nil, err
	}

	out := prefix + ".png"
	defer func() {
		if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.b.logger.Warn("failed to remove rendered page", "file", out, "error", err)
		}
	}()

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image for page %d: %w", index, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page %d: %w", index, err)
	}
	return img, nil
}

func (s *popplerSession) Close() error {
	return os.RemoveAll(s.tmpDir)
}
