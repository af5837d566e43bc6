package inspection

import (
	"encoding/base64"
	"strings"

	"github.com/compia/backend/internal/domain/shared"
)

// maxSignatureSize caps a decoded signature image
const maxSignatureSize = 2 << 20

// signatureExtensions lists the raster formats a signature may use. SVG is
// excluded because it can carry script.
var signatureExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

var errInvalidSignatureImage = shared.NewDomainError("INVALID_SIGNATURE", "Signature must be a base64 image data URL")

// decodeDataURL parses a "data:image/png;base64,..." signature drawn on the canvas
func decodeDataURL(raw string) (data []byte, contentType, ext string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "data:")
	if !ok {
		return nil, "", "", errInvalidSignatureImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", "", errInvalidSignatureImage
	}
	mediaType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return nil, "", "", errInvalidSignatureImage
	}
	contentType = strings.ToLower(mediaType)
	ext, ok = signatureExtensions[contentType]
	if !ok {
		return nil, "", "", errInvalidSignatureImage
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxSignatureSize {
		return nil, "", "", shared.NewDomainError("SIGNATURE_TOO_LARGE", "Signature image exceeds 2MB")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", "", errInvalidSignatureImage
	}
	return data, contentType, ext, nil
}
