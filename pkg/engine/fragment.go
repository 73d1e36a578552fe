package engine

import (
	"fmt"
	"strings"

	"github.com/rhuss/strom/pkg/conversation"
)

// Fragment is one element of a generation stream. The set of implementations
// is closed: a consumer switching over all of them handles every fragment an
// engine can produce.
type Fragment interface {
	fragment()
}

// TextFragment is a chunk of assistant text.
type TextFragment struct {
	Text string
}

// ProviderInfo announces which backend serves the stream. Engines emit it
// as the first fragment once routing has settled.
type ProviderInfo struct {
	Name string
}

// ConversationUpdate carries refreshed opaque continuation state for the
// dialogue. The state never reaches the client; the bridge stores it keyed
// by the request's conversation identifier.
type ConversationUpdate struct {
	State conversation.State
}

// ImagePreview is a transient placeholder shown while the real result is
// still being generated.
type ImagePreview struct {
	URL string
	Alt string
}

// String renders the preview as a markdown image.
func (p ImagePreview) String() string {
	return fmt.Sprintf("![%s](%s)", p.Alt, p.URL)
}

// ImageResult carries generated image sources. Resolved marks sources that
// are already durable and client-visible; unresolved sources must be
// materialized before they can be shown. Cookies, when present, authenticate
// the fetch of unresolved sources.
type ImageResult struct {
	Sources  []string
	Alt      string
	Cookies  map[string]string
	Resolved bool
}

// String renders the result as linked markdown images. Multiple sources are
// numbered.
func (r ImageResult) String() string {
	if len(r.Sources) == 1 {
		src := r.Sources[0]
		return fmt.Sprintf("[![%s](%s)](%s)", r.Alt, src, src)
	}
	parts := make([]string, len(r.Sources))
	for i, src := range r.Sources {
		parts[i] = fmt.Sprintf("[![#%d %s](%s)](%s)", i+1, r.Alt, src, src)
	}
	return strings.Join(parts, "\n")
}

// FinishSignal marks the regular end of a generation. It carries no client
// payload.
type FinishSignal struct {
	Reason string
}

// Failure is a terminal in-band error. No fragments follow it.
type Failure struct {
	Err error
}

func (TextFragment) fragment()       {}
func (ProviderInfo) fragment()       {}
func (ConversationUpdate) fragment() {}
func (ImagePreview) fragment()       {}
func (ImageResult) fragment()        {}
func (FinishSignal) fragment()       {}
func (Failure) fragment()            {}
