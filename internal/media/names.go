// Package media exposes local files over HTTP so Kodi can stream them.
package media

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Entry is a local file and the name it is served under
type Entry struct {
	Name string
	Path string
}

// ExposeNames derives a unique URL name for every path, keeping the input order.  The name is the file name without
// its extension.  Repeated names get a " #n" suffix, n counting the occurrences of that name so far and bumped further
// while the candidate is already in use.
func ExposeNames(paths []string) []Entry {
	entries := make([]Entry, 0, len(paths))
	taken := make(map[string]bool, len(paths))
	counts := make(map[string]int, len(paths))

	for _, path := range paths {
		base := stem(path)
		counts[base]++
		count := counts[base]
		for taken[numbered(base, count)] {
			count++
		}
		name := numbered(base, count)
		taken[name] = true
		entries = append(entries, Entry{Name: name, Path: path})
	}
	return entries
}

func stem(path string) string {
	base := filepath.Base(path)
	if s := strings.TrimSuffix(base, filepath.Ext(base)); s != "" {
		return s
	}
	// Dot files keep their whole name
	return base
}

func numbered(base string, count int) string {
	if count == 1 {
		return base
	}
	return fmt.Sprintf("%s #%d", base, count)
}

// ItemURL is the URL Kodi is given for an exposed name
func ItemURL(baseURL, name string) string {
	return strings.TrimSuffix(baseURL, "/") + "/file/" + url.PathEscape(name)
}
