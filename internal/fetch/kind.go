package fetch

import (
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Kind classifies a fetched document by how its text is obtained.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
	KindHTML  Kind = "html"
	KindText  Kind = "text"
	// KindUnknown is a document none of the readers accept.
	KindUnknown Kind = "unknown"
)

var extensionKinds = map[string]Kind{
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
	".pdf":  KindPDF,
	".html": KindHTML,
	".htm":  KindHTML,
	".txt":  KindText,
}

// imageMediaTypes maps image extensions to media types. Some formats, TIFF among them,
// are not recognized by content sniffing.
var imageMediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// DetectKind decides the document kind from the Content-Type header, then the URL's file
// extension, then the leading bytes of the body.
func DetectKind(contentType, urlStr string, body []byte) Kind {
	if kind := kindFromMediaType(contentType); kind != KindUnknown {
		return kind
	}
	if u, err := url.Parse(urlStr); err == nil {
		if kind, ok := extensionKinds[strings.ToLower(path.Ext(u.Path))]; ok {
			return kind
		}
	}
	if len(body) > 0 {
		return kindFromMediaType(http.DetectContentType(body))
	}
	return KindUnknown
}

// MediaType returns the bare media type of the document, sniffing the body when the header
// is missing or generic.
func MediaType(contentType string, body []byte) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(body))
	}
	return mediaType
}

// ImageMediaType returns the media type of an image document. When neither the header nor
// the body names an image type, the URL's file extension decides.
func ImageMediaType(contentType, urlStr string, body []byte) string {
	mediaType := MediaType(contentType, body)
	if strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	if u, err := url.Parse(urlStr); err == nil {
		if byExt, ok := imageMediaTypes[strings.ToLower(path.Ext(u.Path))]; ok {
			return byExt
		}
	}
	return mediaType
}

func kindFromMediaType(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindUnknown
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage
	case mediaType == "application/pdf":
		return KindPDF
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return KindHTML
	case mediaType == "text/plain":
		return KindText
	}
	return KindUnknown
}
