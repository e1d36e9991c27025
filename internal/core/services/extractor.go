package services

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	// Registers the PNG decoder for image.DecodeConfig.
	_ "image/png"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
	"github.com/custodia-labs/paperpost-cli/internal/logger"
)

// DefaultMinFigureWidth is the admission threshold in pixels. Narrower
// images are icons and decorative glyphs, not content figures.
const DefaultMinFigureWidth = 300

// figurePattern matches the prepared figure assets in the asset
// directory.
const figurePattern = "images-*.png"

// Extractor enumerates candidate figure images from a prepared asset
// directory and assigns stable, order-preserving indices.
type Extractor struct {
	// MinWidth is the minimum intrinsic width for admission.
	MinWidth int
}

// NewExtractor creates an extractor with the given admission width.
// Zero or negative widths fall back to the default.
func NewExtractor(minWidth int) *Extractor {
	if minWidth <= 0 {
		minWidth = DefaultMinFigureWidth
	}
	return &Extractor{MinWidth: minWidth}
}

// Extract returns the admitted figures of a document, ordered
// lexicographically by path so that indices are dense, zero-based and
// reproducible across runs over an unchanged directory.
//
// An absent asset directory yields an empty sequence, not an error.
// Unreadable or corrupt assets are skipped with a log line; partial
// success is preferred over aborting the batch.
func (e *Extractor) Extract(assetDir string, doc domain.DocumentID) ([]domain.FigureRef, error) {
	if _, err := os.Stat(assetDir); os.IsNotExist(err) {
		logger.Debug("asset directory %s does not exist", assetDir)
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(assetDir, figurePattern))
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	sort.Strings(matches)

	var figures []domain.FigureRef
	for _, path := range matches {
		width, err := imageWidth(path)
		if err != nil {
			logger.Warn("skipping unreadable asset %s: %v", path, err)
			continue
		}
		if width <= e.MinWidth {
			logger.Debug("skipping narrow asset %s (width %d)", path, width)
			continue
		}
		figures = append(figures, domain.FigureRef{
			DocumentID: doc,
			Index:      len(figures),
			Path:       path,
		})
	}

	return figures, nil
}

// imageWidth reads the intrinsic width without decoding pixel data.
func imageWidth(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, err
	}
	return cfg.Width, nil
}
