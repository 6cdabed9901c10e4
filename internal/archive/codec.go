package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// entry is one archive member seen during a walk. open is only valid until
// the walk callback returns.
type entry struct {
	name string
	dir  bool
	open func() (io.ReadCloser, error)
}

func (e entry) read() ([]byte, error) {
	rc, err := e.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// walkFunc returns false to stop the walk early.
type walkFunc func(entry) (bool, error)

type codec interface {
	walk(path string, fn walkFunc) error
}

func codecFor(ext string) (codec, bool) {
	switch ext {
	case "zip":
		return zipCodec{}, true
	case "tar":
		return tarCodec{}, true
	case "tgz", "gz":
		return tarCodec{gzip: true}, true
	default:
		return nil, false
	}
}

type zipCodec struct{}

func (zipCodec) walk(path string, fn walkFunc) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		dir := f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/")
		e := entry{
			name: normalizeName(f.Name, dir),
			dir:  dir,
			open: f.Open,
		}
		if e.name == "" {
			continue
		}
		more, err := fn(e)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

type tarCodec struct {
	gzip bool
}

func (c tarCodec) walk(path string, fn walkFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open tar: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if c.gzip {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		var dir bool
		switch {
		case hdr.Typeflag == tar.TypeDir:
			dir = true
		case hdr.FileInfo().Mode().IsRegular():
		default:
			// Links, devices and pax metadata are never materialized.
			continue
		}

		e := entry{
			name: normalizeName(hdr.Name, dir),
			dir:  dir,
			open: func() (io.ReadCloser, error) { return io.NopCloser(tr), nil },
		}
		if e.name == "" {
			continue
		}
		more, err := fn(e)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
