package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
var pngHead = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
var pdfHead = []byte("%PDF-1.7\n")

func TestValidateKycFileBySniff(t *testing.T) {
	mime, err := ValidateKycFileBySniff("rc_book.jpg", jpegHead)
	assert.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	mime, err = ValidateKycFileBySniff("id.png", pngHead)
	assert.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	mime, err = ValidateKycFileBySniff("rc.pdf", pdfHead)
	assert.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)
}

func TestValidateKycFileBySniff_RejectsBadExtension(t *testing.T) {
	_, err := ValidateKycFileBySniff("vehicle.gif", jpegHead)
	assert.Error(t, err)

	_, err = ValidateKycFileBySniff("script.svg", []byte("<svg></svg>"))
	assert.Error(t, err)
}

func TestValidateKycFileBySniff_RejectsScriptableContent(t *testing.T) {
	_, err := ValidateKycFileBySniff("fake.jpg", []byte("<html><body>hi</body></html>"))
	assert.Error(t, err)
}

func TestIsImageMime(t *testing.T) {
	assert.True(t, IsImageMime("image/jpeg"))
	assert.False(t, IsImageMime("application/pdf"))
}
