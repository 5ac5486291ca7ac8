package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		body        []byte
		want        Kind
	}{
		{name: "png header", contentType: "image/png", url: "https://x.test/a", want: KindImage},
		{name: "pdf header with params", contentType: "application/pdf; qs=0.9", url: "https://x.test/a", want: KindPDF},
		{name: "html header", contentType: "text/html; charset=utf-8", url: "https://x.test/a", want: KindHTML},
		{name: "plain text", contentType: "text/plain", url: "https://x.test/a", want: KindText},
		{name: "extension when header generic", contentType: "application/octet-stream", url: "https://x.test/cert.JPG", want: KindImage},
		{name: "pdf extension", contentType: "", url: "https://x.test/files/cert.pdf?dl=1", want: KindPDF},
		{name: "sniffed pdf", contentType: "", url: "https://x.test/download", body: []byte("%PDF-1.7\n"), want: KindPDF},
		{name: "sniffed png", contentType: "", url: "https://x.test/download", body: []byte("\x89PNG\r\n\x1a\n"), want: KindImage},
		{name: "unknown", contentType: "application/zip", url: "https://x.test/a.zip", want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.contentType, tt.url, tt.body))
		})
	}
}

func TestImageMediaType(t *testing.T) {
	tiff := []byte("II*\x00\x08\x00\x00\x00")

	assert.Equal(t, "application/octet-stream", MediaType("", tiff))
	assert.Equal(t, "image/tiff", ImageMediaType("", "file:///tmp/scan.tif", tiff))
	assert.Equal(t, "image/tiff", ImageMediaType("application/octet-stream", "https://x.test/scans/cert.TIFF?v=2", tiff))
	assert.Equal(t, "image/png", ImageMediaType("image/png", "https://x.test/cert.tif", nil))
	assert.Equal(t, "image/png", ImageMediaType("", "https://x.test/download", []byte("\x89PNG\r\n\x1a\n")))
	assert.Equal(t, "application/octet-stream", ImageMediaType("", "https://x.test/download", tiff))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MediaType("image/jpeg; q=1", nil))
	assert.Equal(t, "image/png", MediaType("application/octet-stream", []byte("\x89PNG\r\n\x1a\n")))
	assert.Equal(t, "image/png", MediaType("", []byte("\x89PNG\r\n\x1a\n")))
}
