// Package cookies loads browser-exported cookies from a directory of HAR
// captures and cookie JSON exports and serves them per provider. The bridge
// consults the store when an image batch carries no cookies of its own.
package cookies

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Config carries the store's tunables.
type Config struct {
	// Aliases maps a provider name to the cookie domain to use for it,
	// overriding the built-in label matching. Keys are case-insensitive.
	Aliases map[string]string
}

// Store holds cookies grouped by domain. Lookups resolve a provider name to
// the best-matching stored domain. Safe for concurrent use; LoadDir swaps
// the whole content atomically.
type Store struct {
	mu      sync.RWMutex
	domains map[string]map[string]string
	aliases map[string]string
}

// New creates an empty store.
func New(cfg Config) *Store {
	aliases := make(map[string]string, len(cfg.Aliases))
	for provider, domain := range cfg.Aliases {
		aliases[strings.ToLower(provider)] = normalizeDomain(domain)
	}
	return &Store{
		domains: make(map[string]map[string]string),
		aliases: aliases,
	}
}

// LoadDir reads every .har and .json file under dir and replaces the store
// content with the result. Unreadable or malformed files are skipped with a
// warning; within a domain, later files win name conflicts. A missing
// directory loads an empty store.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.swap(make(map[string]map[string]string))
			return nil
		}
		return fmt.Errorf("reading cookie dir: %w", err)
	}

	domains := make(map[string]map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".har" && ext != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := readCookieFile(path, ext, domains); err != nil {
			slog.Warn("skipping cookie file", "file", entry.Name(), "error", err)
		}
	}

	s.swap(domains)
	slog.Debug("cookie store loaded", "dir", dir, "domains", len(domains))
	return nil
}

func (s *Store) swap(domains map[string]map[string]string) {
	s.mu.Lock()
	s.domains = domains
	s.mu.Unlock()
}

// CookiesFor returns a copy of the cookies stored for the provider. The
// provider name is matched against stored domains: an alias wins, then an
// exact domain, then the domain whose longest label appears in the provider
// name. Labels shorter than four characters never match; configure an alias
// for those.
func (s *Store) CookiesFor(provider string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domain, ok := s.match(provider)
	if !ok {
		return nil, false
	}
	stored := s.domains[domain]
	out := make(map[string]string, len(stored))
	for name, value := range stored {
		out[name] = value
	}
	return out, true
}

// Domains lists the stored cookie domains in sorted order.
func (s *Store) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.domains))
	for domain := range s.domains {
		out = append(out, domain)
	}
	sort.Strings(out)
	return out
}

func (s *Store) match(provider string) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return "", false
	}

	if domain, ok := s.aliases[p]; ok {
		_, stored := s.domains[domain]
		return domain, stored
	}
	if _, ok := s.domains[p]; ok {
		return p, true
	}

	best, bestLen := "", 0
	for domain := range s.domains {
		for _, label := range strings.Split(domain, ".") {
			if len(label) < 4 || len(label) < bestLen {
				continue
			}
			if !strings.Contains(p, label) {
				continue
			}
			if len(label) > bestLen || domain < best {
				best, bestLen = domain, len(label)
			}
		}
	}
	return best, bestLen > 0
}

// normalizeDomain lowercases and strips the leading dot and www prefix, so
// ".bing.com", "www.bing.com" and "bing.com" all collapse to one key.
func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, ".")
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}
