package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// URLPrefix is the public path the upload directory is served under.
const URLPrefix = "/uploads"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Dir names stored uploads inside a single directory.
type Dir struct {
	root string
	now  func() time.Time
}

// NewDir makes sure root exists and returns a Dir rooted there.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("upload dir must be provided")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Dir{root: root, now: time.Now}, nil
}

// Root is the directory files are written into.
func (d *Dir) Root() string {
	return d.root
}

// SanitizeFilename keeps the base name and replaces every character outside
// [A-Za-z0-9_.-] with an underscore.
func SanitizeFilename(name string) string {
	base := name
	if i := lastSeparator(name); i >= 0 {
		base = name[i+1:]
	}
	if base == "" || base == "." || base == ".." {
		base = "file"
	}
	return unsafeChars.ReplaceAllString(base, "_")
}

// Reserve claims the stored name for an upload called original by creating an
// empty file there, and returns the name with its path. Names are
// "<unix millis>_<sanitized>"; when that file already exists the timestamp is
// bumped until a name can be created exclusively.
func (d *Dir) Reserve(original string) (name, path string, err error) {
	safe := SanitizeFilename(original)
	ts := d.now().UnixMilli()
	for i := 0; i < 1000; i++ {
		name = strconv.FormatInt(ts+int64(i), 10) + "_" + safe
		path = filepath.Join(d.root, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("reserve upload name: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", "", fmt.Errorf("reserve upload name: %w", err)
		}
		return name, path, nil
	}
	return "", "", fmt.Errorf("reserve upload name: no free name for %q", safe)
}

// Release removes a reserved file whose content could not be written.
func (d *Dir) Release(path string) {
	_ = os.Remove(path)
}

// URL is the public path a stored file is served at.
func URL(name string) string {
	return URLPrefix + "/" + name
}

// lastSeparator finds the last path separator of either flavour so names
// sent by Windows browsers lose their directory part too.
func lastSeparator(name string) int {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' || name[i] == '\\' {
			return i
		}
	}
	return -1
}
