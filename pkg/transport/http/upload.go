package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/transport"
)

// handleCookieUpload handles POST /v1/cookies/har. The multipart "file" field
// carries a HAR capture or cookie export; it lands in CookieDir under its
// sanitized original name and the cookie store is reloaded from the full
// directory afterwards.
func (a *Adapter) handleCookieUpload(w http.ResponseWriter, r *http.Request) {
	if a.config.CookieDir == "" {
		transport.WriteErrorResponse(w,
			api.NewValidationError("", "cookie import is not available (no cookie directory configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	if r.ContentLength > a.config.MaxUploadSize {
		transport.WriteErrorResponse(w,
			api.NewValidationError("file", fmt.Sprintf("upload too large (max %d bytes)", a.config.MaxUploadSize)),
			http.StatusRequestEntityTooLarge,
		)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewValidationError("file", fmt.Sprintf("upload too large (max %d bytes)", a.config.MaxUploadSize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewValidationError("file", "multipart field \"file\" is required"),
			http.StatusBadRequest,
		)
		return
	}
	defer file.Close()

	name := sanitizeUploadName(header.Filename)
	if name == "" {
		transport.WriteErrorResponse(w,
			api.NewValidationError("file", "upload needs a filename"),
			http.StatusBadRequest,
		)
		return
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".har", ".json":
	default:
		transport.WriteErrorResponse(w,
			api.NewValidationError("file", "only .har and .json files are accepted"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	if err := os.MkdirAll(a.config.CookieDir, 0o755); err != nil {
		transport.WriteError(w, fmt.Errorf("creating cookie directory: %w", err))
		return
	}

	dst, err := os.OpenFile(filepath.Join(a.config.CookieDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			transport.WriteErrorResponse(w,
				api.NewValidationError("file", fmt.Sprintf("a file named %q already exists", name)),
				http.StatusConflict,
			)
			return
		}
		transport.WriteError(w, fmt.Errorf("creating cookie file: %w", err))
		return
	}

	_, copyErr := io.Copy(dst, file)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(dst.Name())
		transport.WriteError(w, fmt.Errorf("writing cookie file: %w", errors.Join(copyErr, closeErr)))
		return
	}

	if a.cookies != nil {
		if err := a.cookies.LoadDir(a.config.CookieDir); err != nil {
			// The file is saved; a reload failure only delays pickup.
			slog.Warn("cookie store reload failed after upload", "file", name, "error", err)
		}
	}

	writeJSON(w, map[string]string{"status": "ok", "file": name})
}

// sanitizeUploadName reduces a client-supplied filename to a single safe path
// element. Directory parts are stripped and disallowed characters replaced
// with underscores; names that sanitize to nothing usable yield "".
func sanitizeUploadName(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	name := filepath.Base(filename)
	if name == "." || name == "/" || name == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name = strings.Trim(b.String(), "._")
	if name == "" {
		return ""
	}
	return name
}
