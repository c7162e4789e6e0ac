package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pagetone/pagetone-backend/internal/ingestion/outline"
	"github.com/pagetone/pagetone-backend/internal/logger"
)

// MediaToolsService is the glue around system binaries:
//
// REQUIRED BINARIES in worker runtime:
// - pdfcpu for PDF bookmark (outline) export
// - pdfimages (poppler-utils) for embedded image extraction
// - piper only when the local TTS backend is selected
//
// This service is synchronous and deterministic, but should be called from
// worker jobs, not request handlers.
type MediaToolsService interface {
	AssertReady(ctx context.Context) error

	// ExportPDFOutline reads the PDF's embedded bookmark tree. A PDF with no
	// bookmarks yields an empty slice and no error.
	ExportPDFOutline(ctx context.Context, pdfPath string) ([]outline.Node, error)

	// ExtractPDFImages pulls embedded images out of the PDF into outDir, one
	// PNG per image, and reports which page each came from.
	ExtractPDFImages(ctx context.Context, pdfPath string, outDir string) ([]ExtractedImage, error)

	// SynthesizeWithPiper renders text to a WAV file with a local piper
	// voice model.
	SynthesizeWithPiper(ctx context.Context, text string, modelPath string, outPath string) error
}

type ExtractedImage struct {
	Page int
	Path string
}

type mediaToolsService struct {
	log *logger.Logger

	pdfcpuPath    string
	pdfimagesPath string
	piperPath     string

	needsPiper bool

	defaultTimeout time.Duration
}

func NewMediaToolsService(log *logger.Logger, piperBin string, needsPiper bool) MediaToolsService {
	slog := log.With("service", "MediaToolsService")
	if piperBin == "" {
		piperBin = "piper"
	}
	return &mediaToolsService{
		log:            slog,
		pdfcpuPath:     "pdfcpu",
		pdfimagesPath:  "pdfimages",
		piperPath:      piperBin,
		needsPiper:     needsPiper,
		defaultTimeout: 10 * time.Minute,
	}
}

func (m *mediaToolsService) AssertReady(ctx context.Context) error {
	bins := []string{m.pdfcpuPath, m.pdfimagesPath}
	if m.needsPiper {
		bins = append(bins, m.piperPath)
	}
	for _, bin := range bins {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	return nil
}

// pdfcpu's bookmark export format: a top-level object with a "bookmarks"
// array, each entry carrying title, page and nested kids.
type pdfcpuBookmark struct {
	Title string           `json:"title"`
	Page  int              `json:"page"`
	Kids  []pdfcpuBookmark `json:"kids"`
}

type pdfcpuBookmarkFile struct {
	Bookmarks []pdfcpuBookmark `json:"bookmarks"`
}

func (m *mediaToolsService) ExportPDFOutline(ctx context.Context, pdfPath string) ([]outline.Node, error) {
	if pdfPath == "" {
		return nil, fmt.Errorf("pdfPath required")
	}
	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	tmp, err := os.CreateTemp("", "bookmarks-*.json")
	if err != nil {
		return nil, fmt.Errorf("create temp bookmark file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(ctx, m.pdfcpuPath, "bookmarks", "export", pdfPath, tmpPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// pdfcpu exits nonzero when the PDF simply has no bookmarks; treat
		// that the same as an empty outline and let heading inference run.
		if bytes.Contains(out, []byte("no bookmarks")) {
			return nil, nil
		}
		return nil, fmt.Errorf("pdfcpu bookmarks export failed: %w; out=%s", err, string(out))
	}

	raw, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read bookmark export: %w", err)
	}
	return ParseBookmarkJSON(raw)
}

// ParseBookmarkJSON flattens pdfcpu's nested bookmark tree into outline
// nodes in document order, depth becoming the level.
func ParseBookmarkJSON(raw []byte) ([]outline.Node, error) {
	var file pdfcpuBookmarkFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse bookmark export: %w", err)
	}
	var nodes []outline.Node
	var walk func(entries []pdfcpuBookmark, level int)
	walk = func(entries []pdfcpuBookmark, level int) {
		for _, e := range entries {
			nodes = append(nodes, outline.Node{Level: level, Title: e.Title, Page: e.Page})
			if len(e.Kids) > 0 {
				walk(e.Kids, level+1)
			}
		}
	}
	walk(file.Bookmarks, 1)
	return nodes, nil
}

// pdfimages -p puts the source page number in the filename: prefix-PPP-NNN.png
var pdfimagesName = regexp.MustCompile(`-(\d+)-(\d+)\.png$`)

func (m *mediaToolsService) ExtractPDFImages(ctx context.Context, pdfPath string, outDir string) ([]ExtractedImage, error) {
	if pdfPath == "" {
		return nil, fmt.Errorf("pdfPath required")
	}
	if outDir == "" {
		return nil, fmt.Errorf("outDir required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir outDir: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	prefix := filepath.Join(outDir, "img")
	cmd := exec.CommandContext(ctx, m.pdfimagesPath, "-p", "-png", pdfPath, prefix)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdfimages failed: %w; out=%s", err, string(out))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("scan extracted images: %w", err)
	}
	sort.Strings(matches)

	var images []ExtractedImage
	for _, path := range matches {
		sub := pdfimagesName.FindStringSubmatch(path)
		if sub == nil {
			continue
		}
		page, convErr := strconv.Atoi(sub[1])
		if convErr != nil || page < 1 {
			continue
		}
		images = append(images, ExtractedImage{Page: page, Path: path})
	}
	return images, nil
}

func (m *mediaToolsService) SynthesizeWithPiper(ctx context.Context, text string, modelPath string, outPath string) error {
	if text == "" {
		return fmt.Errorf("text required")
	}
	if modelPath == "" {
		return fmt.Errorf("piper model path required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("mkdir audio dir: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.piperPath,
		"--model", modelPath,
		"--output_file", outPath,
	)
	cmd.Stdin = bytes.NewBufferString(text)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("piper synthesis failed: %w; out=%s", err, string(out))
	}
	return nil
}
