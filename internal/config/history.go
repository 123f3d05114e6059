package config

import (
	"os"
	"path/filepath"
	"strings"
)

const historyFile = "host.history"

// LoadHostHistory reads the previously used robot hosts from dir, oldest
// first, deduplicated. The last entry is the most recently used host. A
// missing file is an empty history.
func LoadHostHistory(dir string) []string {
	data, err := os.ReadFile(filepath.Join(dir, historyFile))
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var hosts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		hosts = append(hosts, line)
	}
	return hosts
}

// SaveHostHistory records host as the most recently used one, moving it to
// the end of the history file.
func SaveHostHistory(dir, host string) error {
	var hosts []string
	for _, h := range LoadHostHistory(dir) {
		if h != host {
			hosts = append(hosts, h)
		}
	}
	hosts = append(hosts, host)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(
		filepath.Join(dir, historyFile),
		[]byte(strings.Join(hosts, "\n")+"\n"),
		0o644,
	)
}
