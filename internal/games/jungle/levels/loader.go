// Package levels provides level loading for the jungle game.
// This package depends on world but world does not depend on levels.
package levels

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/vovakirdan/jungle-code/internal/games/jungle/levels/formats"
	"github.com/vovakirdan/jungle-code/internal/games/jungle/world"
)

//go:embed catalog/*.yaml
var builtinFS embed.FS

// ErrNotFound is returned when no level has the requested id.
var ErrNotFound = errors.New("levels: level not found")

// Level represents a complete level definition.
type Level struct {
	ID       string
	Name     string
	Goal     string
	Order    int
	World    *world.World
	Solution string
	Metadata map[string]string
	FilePath string
}

// FileError ties a load failure to its file.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Loader handles loading levels from a file system.
type Loader struct {
	fsys fs.FS
	root string
}

// NewLoader creates a loader for a directory on disk.
func NewLoader(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir), root: "."}
}

// NewFSLoader creates a loader over any fs.FS, rooted at root.
func NewFSLoader(fsys fs.FS, root string) *Loader {
	return &Loader{fsys: fsys, root: root}
}

// Builtin returns a loader for the levels compiled into the binary.
func Builtin() *Loader {
	return NewFSLoader(builtinFS, "catalog")
}

// LoadAll recursively scans and loads all level files.
// Invalid files are skipped. Levels are sorted by order, then ID.
func (l *Loader) LoadAll() ([]Level, error) {
	levels, _, err := l.load()
	return levels, err
}

// Check loads every file and returns the per-file failures alongside the
// levels that loaded cleanly.
func (l *Loader) Check() ([]Level, []FileError, error) {
	return l.load()
}

func (l *Loader) load() ([]Level, []FileError, error) {
	var levels []Level
	var failures []FileError
	seen := make(map[string]string)

	err := fs.WalkDir(l.fsys, l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedExtension(strings.ToLower(path.Ext(p))) {
			return nil
		}

		level, err := l.LoadFile(p)
		if err != nil {
			failures = append(failures, FileError{Path: p, Err: err})
			return nil
		}
		if prev, dup := seen[level.ID]; dup {
			failures = append(failures, FileError{Path: p, Err: fmt.Errorf("duplicate level id %q (also in %s)", level.ID, prev)})
			return nil
		}
		seen[level.ID] = p
		levels = append(levels, level)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("levels: walking %s: %w", l.root, err)
	}

	sortLevels(levels)
	return levels, failures, nil
}

// LoadFile loads and validates a single level file.
func (l *Loader) LoadFile(p string) (Level, error) {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return Level{}, fmt.Errorf("reading file %s: %w", p, err)
	}

	lvl, err := Parse(data, strings.ToLower(path.Ext(p)))
	if err != nil {
		return Level{}, fmt.Errorf("parsing file %s: %w", p, err)
	}
	lvl.FilePath = p
	return lvl, nil
}

// LoadByID loads a specific level by ID.
func (l *Loader) LoadByID(id string) (Level, error) {
	levels, err := l.LoadAll()
	if err != nil {
		return Level{}, err
	}
	for _, lvl := range levels {
		if lvl.ID == id {
			return lvl, nil
		}
	}
	return Level{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ListIDs returns all level IDs in campaign order.
func (l *Loader) ListIDs() ([]string, error) {
	levels, err := l.LoadAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(levels))
	for i, lvl := range levels {
		ids[i] = lvl.ID
	}
	return ids, nil
}

// Parse decodes level data in the format named by ext and validates it.
func Parse(data []byte, ext string) (Level, error) {
	var (
		parsed formats.Level
		err    error
	)
	switch ext {
	case ".yaml", ".yml":
		parsed, err = formats.ParseYAML(data)
	default:
		return Level{}, fmt.Errorf("unsupported extension: %s", ext)
	}
	if err != nil {
		return Level{}, err
	}
	if err := parsed.World.Validate(); err != nil {
		return Level{}, err
	}

	return Level{
		ID:       parsed.World.ID,
		Name:     parsed.World.Name,
		Goal:     parsed.Goal,
		Order:    parsed.Order,
		World:    parsed.World,
		Solution: parsed.Solution,
		Metadata: parsed.Metadata,
	}, nil
}

func sortLevels(levels []Level) {
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Order != levels[j].Order {
			return levels[i].Order < levels[j].Order
		}
		return levels[i].ID < levels[j].ID
	})
}

// isSupportedExtension checks if extension is supported.
func isSupportedExtension(ext string) bool {
	for _, supported := range formats.FormatExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}
