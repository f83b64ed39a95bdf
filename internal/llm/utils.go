package llm

import (
	"encoding/base64"
	"net/http"

	"github.com/joseph-ayodele/docextract/constants"
)

// EncodeInline returns the base64 payload for inline document parts.
func EncodeInline(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ResolveMediaType keeps a declared allowed media type, otherwise sniffs the bytes.
// Falls back to application/octet-stream so the provider can reject it.
func ResolveMediaType(req ExtractRequest) string {
	if constants.IsAllowedMediaType(req.MediaType) {
		return req.MediaType
	}
	if sniffed := http.DetectContentType(req.Data); constants.IsAllowedMediaType(sniffed) {
		return sniffed
	}
	return "application/octet-stream"
}
