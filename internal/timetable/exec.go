package timetable

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

func run(cmd *exec.Cmd) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(cmd.Path), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// PdftoppmRasterizer renders pdf pages with poppler's pdftoppm.
type PdftoppmRasterizer struct {
	// Binary defaults to "pdftoppm" on the PATH.
	Binary string
}

func (r PdftoppmRasterizer) Rasterize(ctx context.Context, path string, dpi int) ([]image.Image, error) {
	binary := r.Binary
	if binary == "" {
		binary = "pdftoppm"
	}

	dir, err := os.MkdirTemp("", "timetable-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	_, err = run(exec.CommandContext(
		ctx, binary,
		"-r", strconv.Itoa(dpi),
		"-png",
		path,
		filepath.Join(dir, "page"),
	))
	if err != nil {
		return nil, err
	}

	// page numbers are zero padded so lexical order is page order
	files, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)

	pages := make([]image.Image, 0, len(files))
	for _, file := range files {
		img, err := decodePng(file)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

func decodePng(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// TesseractOCR reads text with the tesseract command line tool, images are
// piped through stdin as png.
type TesseractOCR struct {
	// Binary defaults to "tesseract" on the PATH.
	Binary string
	// Language is passed as -l when set, e.g. "ita".
	Language string
	Args     []string
}

func (t TesseractOCR) args() []string {
	args := []string{"stdin", "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	return append(args, t.Args...)
}

func (t TesseractOCR) Text(ctx context.Context, img image.Image) (string, error) {
	binary := t.Binary
	if binary == "" {
		binary = "tesseract"
	}

	var input bytes.Buffer
	err := png.Encode(&input, img)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, binary, t.args()...)
	cmd.Stdin = &input
	out, err := run(cmd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
