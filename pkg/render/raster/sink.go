package raster

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/bmp"

	"github.com/matzehuels/arteria/pkg/errors"
)

// Bitmap formats.
const (
	FormatPNG = "png"
	FormatBMP = "bmp"
)

// Formats lists the supported bitmap formats.
var Formats = []string{FormatPNG, FormatBMP}

// Sink receives labelled grids.
type Sink interface {
	Write(g *Grid, label string) error
}

// Encode writes g to w in the given format.
func Encode(w io.Writer, g *Grid, format string) error {
	switch format {
	case FormatPNG, "":
		return png.Encode(w, g.Image())
	case FormatBMP:
		return bmp.Encode(w, g.Image())
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported bitmap format %q", format)
	}
}

// Bytes encodes g in the given format.
func Bytes(g *Grid, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, g, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileSink writes each grid to Dir/<label>.<format>.
type FileSink struct {
	Dir    string
	Format string
}

// Write implements Sink.
func (s FileSink) Write(g *Grid, label string) error {
	if err := errors.ValidateLabel(label); err != nil {
		return err
	}
	format := s.Format
	if format == "" {
		format = FormatPNG
	}
	if err := errors.ValidateFormat(format, Formats); err != nil {
		return err
	}
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", s.Dir, err)
		}
	}
	path := filepath.Join(s.Dir, label+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, g, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Path returns the file a grid with the given label is written to.
func (s FileSink) Path(label string) string {
	format := s.Format
	if format == "" {
		format = FormatPNG
	}
	return filepath.Join(s.Dir, label+"."+format)
}

// MemorySink keeps encoded grids by label.
type MemorySink struct {
	Format string

	mu   sync.Mutex
	data map[string][]byte
}

// Write implements Sink.
func (s *MemorySink) Write(g *Grid, label string) error {
	if err := errors.ValidateLabel(label); err != nil {
		return err
	}
	b, err := Bytes(g, s.Format)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[label] = b
	return nil
}

// Get returns the encoded grid written under label.
func (s *MemorySink) Get(label string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[label]
	return b, ok
}
