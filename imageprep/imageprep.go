// Package imageprep loads screenshots, shrinks them and encodes them as
// base64 JPEG for multimodal prompts.
package imageprep

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"social-pilot/internal/logger"
)

type Options struct {
	MaxCount  int
	MaxWidth  int
	MaxHeight int
	Quality   int
}

func DefaultOptions() Options {
	return Options{MaxCount: 4, MaxWidth: 1024, MaxHeight: 1024, Quality: 70}
}

type Prepared struct {
	Base64       string
	OriginalPath string
}

// Select picks n evenly spaced items, keeping the first and the last.
func Select(paths []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(paths) <= n {
		return paths
	}
	if n == 1 {
		return paths[:1]
	}
	step := float64(len(paths)-1) / float64(n-1)
	out := make([]string, n)
	for i := range n {
		out[i] = paths[int(math.Round(float64(i)*step))]
	}
	return out
}

// Preparer resolves site-relative paths against BaseDir.
type Preparer struct {
	BaseDir string
}

// Prepare loads and re-encodes screenshots. Unreadable files are skipped
// with a warning; order follows the selection.
func (p *Preparer) Prepare(ctx context.Context, paths []string, opts Options) ([]Prepared, error) {
	def := DefaultOptions()
	if opts.MaxCount <= 0 {
		opts.MaxCount = def.MaxCount
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = def.MaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = def.MaxHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = def.Quality
	}

	selected := Select(paths, opts.MaxCount)
	results := make([]*Prepared, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			encoded, err := p.encode(path, opts)
			if err != nil {
				logger.WarnWithFields("skip unreadable screenshot", logger.Fields{"path": path, "error": err.Error()})
				return nil
			}
			results[i] = &Prepared{Base64: encoded, OriginalPath: path}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Prepared, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (p *Preparer) resolve(path string) string {
	if filepath.IsAbs(path) && p.BaseDir == "" {
		return path
	}
	return filepath.Join(p.BaseDir, strings.TrimPrefix(path, "/"))
}

func (p *Preparer) encode(path string, opts Options) (string, error) {
	f, err := os.Open(p.resolve(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	img := fitInside(src, opts.MaxWidth, opts.MaxHeight)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fitInside scales src down to fit maxW x maxH, keeping the aspect ratio.
// Images already inside the box are returned unchanged.
func fitInside(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
