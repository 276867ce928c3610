package artwork

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG artwork
	"os"
	"path/filepath"
	"regexp"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	DefaultSize       = 512
	DefaultBlurRadius = 15.0
	coverRatio        = 0.70
)

// Options configures a Renderer.
type Options struct {
	OutputDir  string
	Size       int
	BlurRadius float64
}

// Renderer turns artwork into a square now-playing card: a blurred fill of
// the cover with the sharp cover centered on top.
type Renderer struct {
	logger *zap.Logger
	opts   Options
}

func NewRenderer(opts Options, logger *zap.Logger) *Renderer {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.BlurRadius <= 0 {
		opts.BlurRadius = DefaultBlurRadius
	}
	return &Renderer{logger: logger, opts: opts}
}

// Render returns the JPEG-encoded card for imageData.
func (r *Renderer) Render(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dy() == 0 || bounds.Dx() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	size := r.opts.Size
	background := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	background = imaging.Blur(background, r.opts.BlurRadius)

	// Fit keeps the aspect ratio of non-square covers.
	edge := int(float64(size) * coverRatio)
	cover := imaging.Fit(img, edge, edge, imaging.Lanczos)
	cb := cover.Bounds()

	result := imaging.Paste(background, cover, image.Pt((size-cb.Dx())/2, (size-cb.Dy())/2))

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, result, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	r.logger.Debug("Artwork rendered", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Generate renders imgData and writes it to <OutputDir>/<name>.jpg,
// returning the absolute path.
func (r *Renderer) Generate(imgData []byte, name string) (string, error) {
	card, err := r.Render(imgData)
	if err != nil {
		return "", fmt.Errorf("failed to render artwork: %w", err)
	}

	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" {
		name = "artwork"
	}

	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(r.opts.OutputDir, name+".jpg")
	tmp := outputPath + ".tmp"
	if err := os.WriteFile(tmp, card, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artwork file: %w", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		return "", fmt.Errorf("failed to replace artwork file: %w", err)
	}

	r.logger.Info("Artwork card written",
		zap.String("path", outputPath),
		zap.Int("size", len(card)))

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return outputPath, nil
	}
	return absPath, nil
}
