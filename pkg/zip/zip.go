package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"
)

// Asset is one file of an archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// Write streams assets into a deflated zip on w. Every entry gets modified
// as its timestamp and its MIME type as the entry comment.
func Write(w io.Writer, assets []Asset, modified time.Time) error {
	zw := zip.NewWriter(w)
	for _, asset := range assets {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     asset.Filename,
			Comment:  asset.MIME,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("zip %s: %w", asset.Filename, err)
		}
		if _, err := fw.Write(asset.Data); err != nil {
			return fmt.Errorf("zip %s: %w", asset.Filename, err)
		}
	}
	return zw.Close()
}

// ArchiveAssets builds the archive in memory.
func ArchiveAssets(assets []Asset, modified time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := Write(buf, assets, modified); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
