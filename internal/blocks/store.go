package blocks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError indicates that no content blocks exist for an entity and
// language.
type NotFoundError struct {
	Entity string
	Lang   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no content blocks for %q (%s)", e.Entity, e.Lang)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// Store fetches the content blocks of an article.
type Store interface {
	Fetch(ctx context.Context, entity, lang string) ([]Block, error)
}

// DirStore reads block files named <entity>_<lang>.json or
// <entity>_<lang>.html from a directory.
type DirStore struct {
	Dir string
}

// NewDirStore returns a store reading from dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Path returns the file that would be read for entity and lang, preferring
// JSON over HTML, and whether it exists.
func (s *DirStore) Path(entity, lang string) (string, bool) {
	base := filepath.Join(s.Dir, fileStem(entity, lang))
	for _, ext := range []string{".json", ".html", ".htm"} {
		p := base + ext
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return base + ".json", false
}

// Fetch implements Store.
func (s *DirStore) Fetch(ctx context.Context, entity, lang string) ([]Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := s.Path(entity, lang)
	if !ok {
		return nil, NotFoundError{Entity: entity, Lang: lang}
	}
	return ReadFile(path)
}

// ReadFile reads a block file, choosing the decoder from its extension.
func ReadFile(path string) ([]Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocks: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return DecodeHTML(f)
	default:
		return DecodeJSON(f)
	}
}

func fileStem(entity, lang string) string {
	return strings.ReplaceAll(entity, string(filepath.Separator), "_") + "_" + lang
}

// FallbackStore tries each store in order and returns the first result that
// is not a NotFoundError.
type FallbackStore []Store

// Fetch implements Store.
func (fs FallbackStore) Fetch(ctx context.Context, entity, lang string) ([]Block, error) {
	for _, s := range fs {
		blocks, err := s.Fetch(ctx, entity, lang)
		if err == nil {
			return blocks, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, NotFoundError{Entity: entity, Lang: lang}
}
