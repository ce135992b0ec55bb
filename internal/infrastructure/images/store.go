// Package images resolves recipe image names to files in the image directory.
package images

import (
	"fmt"
	"io"
	"log"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/recipelens/backend/internal/domain"
	"github.com/spf13/afero"
)

// DefaultExtensions are probed in order for every lookup
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// globMeta are the characters filepath.Match treats specially
const globMeta = `*?[\`

// Store looks up images by base name under a single directory
type Store struct {
	fs         afero.Fs
	dir        string
	extensions []string
	debug      bool
}

// NewStore creates an image store rooted at dir
func NewStore(fsys afero.Fs, dir string) *Store {
	return &Store{
		fs:         fsys,
		dir:        dir,
		extensions: DefaultExtensions,
	}
}

// SetDebug enables per-lookup logging
func (s *Store) SetDebug(debug bool) {
	s.debug = debug
}

// SanitizeName strips directory components and a trailing image extension.
// Returns domain.ErrInvalidRequest for names that reduce to nothing.
func SanitizeName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "", fmt.Errorf("%w: bad image name %q", domain.ErrInvalidRequest, name)
	}

	if ext := path.Ext(base); ext != "" && slices.Contains(DefaultExtensions, strings.ToLower(ext)) {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return "", fmt.Errorf("%w: bad image name %q", domain.ErrInvalidRequest, name)
	}
	return base, nil
}

// Locate returns the file name serving the given base name.
// For each extension an exact "<name><ext>" is tried before the first
// file matching "<name>*<ext>".
func (s *Store) Locate(name string) (string, error) {
	base, err := SanitizeName(name)
	if err != nil {
		return "", err
	}

	for _, ext := range s.extensions {
		candidate := base + ext
		if s.isFile(filepath.Join(s.dir, candidate)) {
			if s.debug {
				log.Printf("[IMAGES] %q -> %s", name, candidate)
			}
			return candidate, nil
		}

		if strings.ContainsAny(base, globMeta) {
			continue
		}
		matches, err := afero.Glob(s.fs, filepath.Join(s.dir, base+"*"+ext))
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if s.isFile(m) {
				if s.debug {
					log.Printf("[IMAGES] %q -> %s (prefix match)", name, filepath.Base(m))
				}
				return filepath.Base(m), nil
			}
		}
	}

	if s.debug {
		log.Printf("[IMAGES] Image not found: %q", name)
	}
	return "", domain.ErrImageNotFound
}

// Open returns the image contents for a base name
func (s *Store) Open(name string) (io.ReadCloser, string, error) {
	file, err := s.Locate(name)
	if err != nil {
		return nil, "", err
	}

	f, err := s.fs.Open(filepath.Join(s.dir, file))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image %s: %w", file, err)
	}
	return f, file, nil
}

func (s *Store) isFile(p string) bool {
	info, err := s.fs.Stat(p)
	return err == nil && !info.IsDir()
}
