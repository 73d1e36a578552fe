package media

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestIsDataRef(t *testing.T) {
	if !isDataRef("data:image/png;base64,iVBOR") {
		t.Error("expected data reference to be recognized")
	}
	if isDataRef("https://example.com/a.png") {
		t.Error("expected URL not to be recognized as data reference")
	}
}

func TestDecodeDataRef(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	got, err := decodeDataRef(ref)
	if err != nil {
		t.Fatalf("decodeDataRef() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("decodeDataRef() = %v, want %v", got, payload)
	}
}

func TestDecodeDataRefErrors(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"missing comma", "data:image/png;base64"},
		{"not base64 encoded", "data:image/png,rawbytes"},
		{"invalid base64", "data:image/png;base64,!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeDataRef(tt.ref); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
