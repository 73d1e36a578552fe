package media

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// dataRefPrefix marks an inline self-describing source reference.
const dataRefPrefix = "data:"

// isDataRef reports whether ref carries inline content rather than a remote
// locator.
func isDataRef(ref string) bool {
	return strings.HasPrefix(ref, dataRefPrefix)
}

// decodeDataRef extracts the raw bytes of an inline data reference. Only
// base64 payloads are supported. The declared media type is ignored: content
// is always sniffed after staging, so a lying data URI cannot pick its own
// extension.
func decodeDataRef(ref string) ([]byte, error) {
	idx := strings.IndexByte(ref, ',')
	if idx < 0 {
		return nil, fmt.Errorf("data reference has no payload separator")
	}
	meta := ref[len(dataRefPrefix):idx]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data reference is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(ref[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("decoding data reference: %w", err)
	}
	return data, nil
}
