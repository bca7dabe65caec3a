package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveAssetsRoundTrip(t *testing.T) {
	modified := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	data, err := ArchiveAssets([]Asset{
		{Filename: "a.png", MIME: "image/png", Data: []byte("png")},
		{Filename: "notes/b.txt", MIME: "text/plain", Data: []byte("hello")},
	}, modified)
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("files = %d, want 2", len(zr.File))
	}
	f := zr.File[1]
	if f.Name != "notes/b.txt" || f.Comment != "text/plain" || !f.Modified.Equal(modified) {
		t.Fatalf("header = %s %q %s", f.Name, f.Comment, f.Modified)
	}
	rc, _ := f.Open()
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "hello" {
		t.Fatalf("body = %q, want hello", body)
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	data, err := ArchiveAssets(nil, time.Now())
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil || len(zr.File) != 0 {
		t.Fatalf("empty archive = %v, %v", zr, err)
	}
}
