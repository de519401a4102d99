package docprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func testImagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestPreviewFitsBounds(t *testing.T) {
	data := testImagePNG(t, 1600, 900)

	preview, err := Preview(data)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(preview))
	if err != nil {
		t.Fatalf("preview is not a decodable image: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > previewMaxWidth || b.Dy() > previewMaxHeight {
		t.Errorf("preview %dx%d exceeds %dx%d", b.Dx(), b.Dy(), previewMaxWidth, previewMaxHeight)
	}
	if b.Dx() != previewMaxWidth {
		t.Errorf("expected width %d for landscape source, got %d", previewMaxWidth, b.Dx())
	}
}

func TestPreviewRejectsNonImage(t *testing.T) {
	if _, err := Preview([]byte("%PDF-1.7 not an image")); err == nil {
		t.Fatal("expected error for non-image input")
	}
}

func TestExtractMetadataWithoutExif(t *testing.T) {
	// PNGs carry no EXIF; extraction must degrade gracefully.
	meta := ExtractMetadata("doc-uuid", testImagePNG(t, 10, 10))
	if meta.CapturedAt != nil {
		t.Errorf("expected nil CapturedAt, got %v", meta.CapturedAt)
	}
	if meta.RawJSON != "" {
		t.Errorf("expected empty RawJSON, got %q", meta.RawJSON)
	}
}
