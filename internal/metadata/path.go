package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var albumDirPattern = regexp.MustCompile(`^(.+) \((\d{4})\)$`)

// AlbumInfoFromPath reads album and year from a parent directory named
// "Album (Year)".
func AlbumInfoFromPath(path string) (album string, year int, ok bool) {
	dir := filepath.Base(filepath.Dir(path))
	m := albumDirPattern.FindStringSubmatch(dir)
	if m == nil {
		return "", 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(m[1]), year, true
}
