package media

import "bytes"

// sniffLen is the number of leading bytes examined to classify content.
const sniffLen = 12

// Kind identifies a supported media format. Its string value is the canonical
// file extension, so KindJPEG is "jpg", never "jpeg".
type Kind string

const (
	KindUnknown Kind = ""
	KindJPEG    Kind = "jpg"
	KindPNG     Kind = "png"
	KindGIF     Kind = "gif"
	KindWEBP    Kind = "webp"
	KindSVG     Kind = "svg"
)

// Extension returns the canonical file extension without the leading dot.
func (k Kind) Extension() string { return string(k) }

// Sniff classifies content by its leading bytes. At most sniffLen bytes are
// examined. Unclassifiable content yields KindUnknown, which callers must
// treat as a hard materialization failure, never as a default extension.
func Sniff(prefix []byte) Kind {
	if len(prefix) > sniffLen {
		prefix = prefix[:sniffLen]
	}

	switch {
	case bytes.HasPrefix(prefix, []byte{0xFF, 0xD8, 0xFF}):
		return KindJPEG
	case bytes.HasPrefix(prefix, []byte("\x89PNG\r\n\x1a\n")):
		return KindPNG
	case bytes.HasPrefix(prefix, []byte("GIF87a")), bytes.HasPrefix(prefix, []byte("GIF89a")):
		return KindGIF
	case bytes.HasPrefix(prefix, []byte("\x89JFIF")), bytes.HasPrefix(prefix, []byte("JFIF\x00")):
		return KindJPEG
	case len(prefix) >= 12 && bytes.HasPrefix(prefix, []byte("RIFF")) && bytes.Equal(prefix[8:12], []byte("WEBP")):
		return KindWEBP
	case bytes.HasPrefix(prefix, []byte{0xFF, 0xD8}):
		return KindJPEG
	case isSVGPrefix(prefix):
		return KindSVG
	}
	return KindUnknown
}

// isSVGPrefix matches vector documents by their opening tag, tolerating
// leading whitespace within the sniffed window.
func isSVGPrefix(prefix []byte) bool {
	trimmed := bytes.TrimLeft(prefix, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("<svg")) || bytes.HasPrefix(trimmed, []byte("<?xml"))
}
