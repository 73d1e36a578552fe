package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// PublicPrefix is the stable path prefix under which published artifacts
	// are served by the static file layer.
	PublicPrefix = "/images/"

	// DefaultMaxBytes caps the size of a single fetched artifact.
	DefaultMaxBytes = 50 << 20

	// DefaultFetchTimeout bounds one remote fetch end to end.
	DefaultFetchTimeout = 120 * time.Second
)

// Artifact is the durable result of materializing one source reference.
type Artifact struct {
	// Name is the final file name under the media directory, extension
	// included.
	Name string

	// Kind is the verified media kind.
	Kind Kind

	// PublicPath is the stable reference handed to clients.
	PublicPath string
}

// Config controls a Materializer.
type Config struct {
	// Dir is the artifact directory. Created lazily on first use.
	Dir string

	// MaxConcurrent bounds parallel fetches within one batch.
	// <= 0 runs one task per reference with no cap.
	MaxConcurrent int

	// MaxBytes caps the size of one fetched artifact.
	// <= 0 applies DefaultMaxBytes.
	MaxBytes int64

	// FetchTimeout bounds one remote fetch. <= 0 applies DefaultFetchTimeout.
	// Ignored when HTTPClient is set.
	FetchTimeout time.Duration

	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

// Materializer resolves batches of source references into published
// artifacts. Safe for concurrent use by multiple streams.
type Materializer struct {
	dir           string
	maxConcurrent int
	maxBytes      int64
	client        *http.Client

	dirOnce sync.Once
	dirErr  error
}

// New creates a Materializer.
func New(cfg Config) *Materializer {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.FetchTimeout
		if timeout <= 0 {
			timeout = DefaultFetchTimeout
		}
		client = &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
					return operation + " " + r.URL.Host
				})),
		}
	}

	return &Materializer{
		dir:           cfg.Dir,
		maxConcurrent: cfg.MaxConcurrent,
		maxBytes:      maxBytes,
		client:        client,
	}
}

// Dir returns the artifact directory.
func (m *Materializer) Dir() string { return m.dir }

// stagedArtifact is a verified temporary file awaiting publication.
type stagedArtifact struct {
	tmpPath string
	kind    Kind
}

// Materialize resolves refs concurrently into published artifacts, in input
// order. Semantics are all-or-nothing: if any reference fails, the whole
// batch fails, remaining fetches are cancelled through the group context, and
// nothing is published. Cookies are attached to every remote fetch of the
// batch.
func (m *Materializer) Materialize(ctx context.Context, refs []string, cookies map[string]string) (artifacts []Artifact, err error) {
	if len(refs) == 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		observability.MaterializationsTotal.WithLabelValues(status).Inc()
		observability.MaterializationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	ctx, span := tracer.Start(ctx, "media.materialize")
	defer span.End()
	span.SetAttributes(attribute.Int("media.batch_size", len(refs)))

	if err := m.ensureDir(); err != nil {
		span.RecordError(err)
		return nil, api.Wrap(api.ErrorKindMaterialization, err)
	}

	staged := make([]stagedArtifact, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	if m.maxConcurrent > 0 {
		g.SetLimit(m.maxConcurrent)
	}
	for i, ref := range refs {
		g.Go(func() error {
			s, err := m.stage(gctx, ref, cookies)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			staged[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.discard(staged)
		span.RecordError(err)
		return nil, api.Wrap(api.ErrorKindMaterialization, err)
	}

	published, err := m.publish(staged)
	if err != nil {
		span.RecordError(err)
		return nil, api.Wrap(api.ErrorKindMaterialization, err)
	}
	return published, nil
}

// stage fetches or decodes one reference into a uniquely named temporary file
// and verifies its content kind. Temporary names carry no extension, so they
// are never mistaken for published artifacts.
func (m *Materializer) stage(ctx context.Context, ref string, cookies map[string]string) (stagedArtifact, error) {
	tmpPath := filepath.Join(m.dir, newArtifactName())

	var err error
	if isDataRef(ref) {
		err = writeDataRef(tmpPath, ref)
	} else {
		err = m.download(ctx, tmpPath, ref, cookies)
	}
	if err != nil {
		os.Remove(tmpPath)
		return stagedArtifact{}, err
	}

	kind, err := sniffFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return stagedArtifact{}, err
	}
	if kind == KindUnknown {
		os.Remove(tmpPath)
		return stagedArtifact{}, api.NewUnknownMediaError("content matches no supported image format")
	}

	return stagedArtifact{tmpPath: tmpPath, kind: kind}, nil
}

// download fetches a remote reference into path, honoring the batch cookies
// and the configured size cap.
func (m *Materializer) download(ctx context.Context, path, url string, cookies map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building fetch request for %q: %w", url, err)
	}
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetching %q: unexpected status %d", url, resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	written, copyErr := io.Copy(f, io.LimitReader(resp.Body, m.maxBytes+1))
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}
	if written > m.maxBytes {
		return fmt.Errorf("fetching %q: artifact exceeds %d byte limit", url, m.maxBytes)
	}
	return nil
}

// publish renames every staged artifact to its final extension-bearing name.
// Runs only after the whole batch staged successfully; a rename failure rolls
// back names already published from this batch.
func (m *Materializer) publish(staged []stagedArtifact) ([]Artifact, error) {
	artifacts := make([]Artifact, len(staged))
	for i, s := range staged {
		finalPath := s.tmpPath + "." + s.kind.Extension()
		if err := os.Rename(s.tmpPath, finalPath); err != nil {
			for j := 0; j < i; j++ {
				os.Remove(filepath.Join(m.dir, artifacts[j].Name))
			}
			m.discard(staged[i:])
			return nil, fmt.Errorf("publishing artifact: %w", err)
		}

		name := filepath.Base(finalPath)
		artifacts[i] = Artifact{Name: name, Kind: s.kind, PublicPath: PublicPrefix + name}
		observability.ArtifactsTotal.WithLabelValues(s.kind.Extension()).Inc()
	}
	return artifacts, nil
}

// discard removes temporary files best-effort. Entries that never staged
// have an empty path and are skipped.
func (m *Materializer) discard(staged []stagedArtifact) {
	for _, s := range staged {
		if s.tmpPath != "" {
			os.Remove(s.tmpPath)
		}
	}
}

// ensureDir creates the artifact directory once, lazily.
func (m *Materializer) ensureDir() error {
	m.dirOnce.Do(func() {
		m.dirErr = os.MkdirAll(m.dir, 0o755)
	})
	return m.dirErr
}

// writeDataRef decodes an inline reference and writes it out.
func writeDataRef(path, ref string) error {
	data, err := decodeDataRef(ref)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// sniffFile classifies the leading bytes of the file at path.
func sniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	prefix := make([]byte, sniffLen)
	n, err := io.ReadFull(f, prefix)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return KindUnknown, err
	}
	return Sniff(prefix[:n]), nil
}

// newArtifactName generates a unique extension-free artifact name.
func newArtifactName() string {
	return fmt.Sprintf("%d_%s", time.Now().Unix(), uuid.NewString())
}
