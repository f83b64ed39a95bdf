package constants

import (
	"mime"
	"strings"
)

type FileFormat string

const (
	PDF   FileFormat = "PDF"
	IMAGE FileFormat = "IMAGE"
)

// AllowedExtensions holds the file extensions accepted for extraction (lowercase, without '.').
var AllowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"heic": "image/heic",
	"heif": "image/heif",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MediaTypeForExt maps an extension to its declared media type, or "" when not allowed.
func MediaTypeForExt(ext string) string {
	ext = NormalizeExt(ext)
	mt, ok := AllowedExtensions[ext]
	if !ok {
		return ""
	}
	if byExt := mime.TypeByExtension("." + ext); byExt != "" && IsAllowedMediaType(byExt) {
		return baseMediaType(byExt)
	}
	return mt
}

// IsAllowedMediaType reports whether mt is an image type or a PDF.
func IsAllowedMediaType(mt string) bool {
	return MapMediaTypeToFormat(mt) != ""
}

// MapMediaTypeToFormat returns the format of a media type, or "" when unsupported.
func MapMediaTypeToFormat(mt string) FileFormat {
	mt = baseMediaType(mt)
	switch {
	case mt == "application/pdf":
		return PDF
	case strings.HasPrefix(mt, "image/"):
		return IMAGE
	}
	return ""
}

func baseMediaType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
