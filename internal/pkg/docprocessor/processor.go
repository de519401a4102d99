package docprocessor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

const (
	previewMaxWidth  = 480
	previewMaxHeight = 480
	previewQuality   = 80
)

// Preview renders the JPEG thumbnail shown on the admin review screen.
// EXIF orientation is applied so sideways phone photos come out upright.
func Preview(original []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error decoding document image: %w", err)
	}

	thumb := imaging.Fit(img, previewMaxWidth, previewMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(previewQuality)); err != nil {
		return nil, fmt.Errorf("error encoding preview: %w", err)
	}
	return buf.Bytes(), nil
}

// Metadata is the extracted capture information for one document photo.
type Metadata struct {
	CapturedAt *time.Time
	CameraMake string
	RawJSON    string
}

// ExtractMetadata reads EXIF data from a document photo. Many uploads are
// scans or screenshots without EXIF; that is not an error.
func ExtractMetadata(documentUUID string, data []byte) Metadata {
	var meta Metadata

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		log.Info(fmt.Sprintf("No EXIF data found for document %s: %v", documentUUID, err))
		return meta
	}

	if t, err := x.DateTime(); err == nil {
		utc := t.UTC()
		meta.CapturedAt = &utc
	}
	if tag, err := x.Get(exif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			meta.CameraMake = s
		}
	}

	fields := map[string]string{}
	if meta.CameraMake != "" {
		fields["make"] = meta.CameraMake
	}
	if model, err := x.Get(exif.Model); err == nil {
		if s, err := model.StringVal(); err == nil {
			fields["model"] = s
		}
	}
	if meta.CapturedAt != nil {
		fields["captured_at"] = meta.CapturedAt.Format(time.RFC3339)
	}
	if len(fields) > 0 {
		if raw, err := json.Marshal(fields); err == nil {
			meta.RawJSON = string(raw)
		}
	}

	return meta
}
