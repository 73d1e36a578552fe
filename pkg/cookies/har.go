package cookies

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
)

// harFile is the slice of the HAR 1.2 schema the store cares about: request
// URLs and the cookies the browser attached to them.
type harFile struct {
	Log struct {
		Entries []struct {
			Request struct {
				URL     string      `json:"url"`
				Cookies []harCookie `json:"cookies"`
			} `json:"request"`
		} `json:"entries"`
	} `json:"log"`
}

type harCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// exportedCookie is one element of a flat cookie JSON export (the format
// browser cookie extensions produce).
type exportedCookie struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// readCookieFile parses one file into domains. A .har file is parsed as a
// HAR capture; a .json file is tried as a flat cookie export first and as a
// HAR capture second, since uploads accept HAR content under either name.
func readCookieFile(path, ext string, domains map[string]map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if ext == ".json" {
		if err := mergeCookieExport(data, domains); err == nil {
			return nil
		}
	}
	return mergeHAR(data, domains)
}

func mergeHAR(data []byte, domains map[string]map[string]string) error {
	var har harFile
	if err := json.Unmarshal(data, &har); err != nil {
		return fmt.Errorf("parsing HAR: %w", err)
	}
	if len(har.Log.Entries) == 0 {
		return fmt.Errorf("parsing HAR: no entries")
	}

	for _, entry := range har.Log.Entries {
		if len(entry.Request.Cookies) == 0 {
			continue
		}
		u, err := url.Parse(entry.Request.URL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		domain := normalizeDomain(u.Hostname())
		for _, c := range entry.Request.Cookies {
			if c.Name == "" {
				continue
			}
			putCookie(domains, domain, c.Name, c.Value)
		}
	}
	return nil
}

func mergeCookieExport(data []byte, domains map[string]map[string]string) error {
	var export []exportedCookie
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("parsing cookie export: %w", err)
	}

	for _, c := range export {
		if c.Domain == "" || c.Name == "" {
			continue
		}
		putCookie(domains, normalizeDomain(c.Domain), c.Name, c.Value)
	}
	return nil
}

func putCookie(domains map[string]map[string]string, domain, name, value string) {
	set, ok := domains[domain]
	if !ok {
		set = make(map[string]string)
		domains[domain] = set
	}
	set[name] = value
}
