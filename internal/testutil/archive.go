package testutil

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Entry is one archive member. A Name ending in "/" is a directory.
type Entry struct {
	Name string
	Body string
}

// Dir is shorthand for a directory entry.
func Dir(name string) Entry {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return Entry{Name: name}
}

// File is shorthand for a file entry.
func File(name, body string) Entry {
	return Entry{Name: name, Body: body}
}

// Manifest returns a modinfo.json entry.
func Manifest(name, version string) Entry {
	return File("modinfo.json", `{
  "name": "`+name+`",
  "author": "test",
  "version": "`+version+`",
  "info": "fixture",
  "injection": "localization"
}`)
}

// WriteArchive creates dir/fileName with entries in order. The format
// follows the extension: .zip, .tar, or .tgz/.gz for gzip-compressed tar.
func WriteArchive(t testing.TB, dir, fileName string, entries ...Entry) string {
	t.Helper()

	path := filepath.Join(dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".zip":
		writeZip(t, f, entries)
	case ".tar":
		writeTar(t, f, entries)
	case ".tgz", ".gz":
		gz := gzip.NewWriter(f)
		writeTar(t, gz, entries)
		if err := gz.Close(); err != nil {
			t.Fatalf("close gzip: %v", err)
		}
	default:
		t.Fatalf("unsupported fixture extension %q", ext)
	}
	return path
}

func writeZip(t testing.TB, w io.Writer, entries []Entry) {
	t.Helper()
	zw := zip.NewWriter(w)
	for _, e := range entries {
		fw, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", e.Name, err)
		}
		if !strings.HasSuffix(e.Name, "/") {
			if _, err := io.WriteString(fw, e.Body); err != nil {
				t.Fatalf("zip write %s: %v", e.Name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func writeTar(t testing.TB, w io.Writer, entries []Entry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0o644, Typeflag: tar.TypeReg, Size: int64(len(e.Body))}
		if strings.HasSuffix(e.Name, "/") {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, e.Body); err != nil {
				t.Fatalf("tar write %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
}
