package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/storage"
	"studio/internal/telemetry"
	"studio/pkg/zip"
)

// ThumbnailSize is the bounding box of generated thumbnails in pixels.
const ThumbnailSize = 256

// ImageSource looks up archived image entries.
type ImageSource interface {
	GetImage(ctx context.Context, userID, id string) (*domain.GeneratedImage, error)
}

// Bundle is a built export archive.
type Bundle struct {
	Filename string
	Data     []byte
}

// Exporter packages image history entries as zip archives.
type Exporter struct {
	images ImageSource
	store  storage.ObjectStore
	target string
	now    func() time.Time
	logger infra.Logger
}

// Options wires an Exporter. Store may be nil when publishing is disabled.
type Options struct {
	Images ImageSource
	Store  storage.ObjectStore
	// Target labels the store in metrics, for example "file" or "s3".
	Target string
	Now    func() time.Time
	Logger infra.Logger
}

func New(opts Options) *Exporter {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Exporter{images: opts.Images, store: opts.Store, target: opts.Target, now: now, logger: opts.Logger}
}

type manifest struct {
	ID             string    `json:"id"`
	Prompt         string    `json:"prompt"`
	AspectRatio    string    `json:"aspectRatio"`
	Style          string    `json:"style,omitempty"`
	NegativePrompt string    `json:"negativePrompt,omitempty"`
	Seed           *int      `json:"seed,omitempty"`
	Files          []string  `json:"files"`
	CreatedAt      time.Time `json:"timestamp"`
}

// Build decodes every embedded image of the entry, adds a thumbnail per
// image and a manifest, and zips the result.
func (e *Exporter) Build(ctx context.Context, owner, id string) (Bundle, error) {
	entry, err := e.images.GetImage(ctx, owner, id)
	if err != nil {
		return Bundle{}, err
	}

	var assets []zip.Asset
	m := manifest{
		ID:             entry.ID,
		Prompt:         entry.Prompt,
		AspectRatio:    entry.AspectRatio,
		Style:          entry.Style,
		NegativePrompt: entry.NegativePrompt,
		Seed:           entry.Seed,
		CreatedAt:      entry.CreatedAt,
	}
	for i, raw := range entry.ImageURLs {
		mime, data, err := DecodeDataURL(raw)
		if err != nil {
			e.logger.Debug().Err(err).Str("image_id", id).Int("index", i).Msg("export: skipping image")
			continue
		}
		name := fmt.Sprintf("image-%02d%s", i+1, extensionFor(mime))
		assets = append(assets, zip.Asset{Filename: name, MIME: mime, Data: data})
		m.Files = append(m.Files, name)

		thumb, err := Thumbnail(data)
		if err != nil {
			return Bundle{}, fmt.Errorf("thumbnail %s: %w", name, err)
		}
		thumbName := path.Join("thumbnails", strings.TrimSuffix(name, path.Ext(name))+".png")
		assets = append(assets, zip.Asset{Filename: thumbName, MIME: "image/png", Data: thumb})
	}
	if len(m.Files) == 0 {
		return Bundle{}, domain.NewMessageError(domain.ErrInvalidInput, "This entry has no embedded images to export.")
	}

	meta, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Bundle{}, fmt.Errorf("marshal manifest: %w", err)
	}
	assets = append(assets, zip.Asset{Filename: "manifest.json", MIME: "application/json", Data: meta})

	data, err := zip.ArchiveAssets(assets, e.now().UTC())
	if err != nil {
		return Bundle{}, fmt.Errorf("build archive: %w", err)
	}
	return Bundle{Filename: "image-" + entry.ID + ".zip", Data: data}, nil
}

// Publish builds the bundle and writes it to object storage under
// exports/<owner>/. It returns the stored location.
func (e *Exporter) Publish(ctx context.Context, owner, id string) (string, error) {
	if e.store == nil {
		return "", domain.NewMessageError(domain.ErrInvalidInput, "Export storage is not configured.")
	}
	bundle, err := e.Build(ctx, owner, id)
	if err != nil {
		return "", err
	}
	key := path.Join("exports", owner, fmt.Sprintf("%s-%d.zip", id, e.now().Unix()))
	location, err := e.store.Put(ctx, key, bundle.Data, "application/zip")
	if err != nil {
		return "", fmt.Errorf("publish export: %w", err)
	}
	telemetry.ExportsWritten.WithLabelValues(e.target).Inc()
	e.logger.Info().Str("image_id", id).Str("location", location).Int("bytes", len(bundle.Data)).Msg("export: published")
	return location, nil
}

// DecodeDataURL splits a base64 data URL into its MIME type and bytes.
func DecodeDataURL(raw string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URL", domain.ErrInvalidInput)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("%w: data URL is not base64", domain.ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	mime := strings.TrimSuffix(header, ";base64")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, data, nil
}

// Thumbnail scales an image to fit a ThumbnailSize square and encodes it as PNG.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".bin"
}
