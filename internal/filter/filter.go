// Package filter builds listing selectors from gitignore-style patterns.
package filter

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"skiff/internal/sftp"
)

// BuildSelector creates a selector that:
// 1. Checks excludes list (gitignore-style patterns, highest priority)
// 2. Checks includes list (force-include, overrides excludes)
// 3. Includes everything else
func BuildSelector(excludes, includes []string) sftp.Selector {
	var matcher *ignore.GitIgnore
	if len(excludes) > 0 {
		matcher = ignore.CompileIgnoreLines(excludes...)
	}

	return sftp.SelectorFrom(func(info sftp.RemoteResourceInfo) bool {
		// Check includes override (force-include even if excluded)
		for _, inc := range includes {
			if info.Name == inc || strings.HasPrefix(info.Name, inc+"/") {
				return true
			}
		}

		if matcher != nil {
			checkPath := info.Name
			if info.IsDirectory() {
				checkPath += "/"
			}
			if matcher.MatchesPath(checkPath) {
				return false
			}
		}

		return true
	})
}
