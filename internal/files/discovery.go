package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wdpkr/zillowdata/internal/config"
)

// Kind groups artifacts by the directory they live in
type Kind string

const (
	KindExport   Kind = "exports"
	KindSnapshot Kind = "snapshots"
)

// ErrInvalidName is returned for names that would escape the artifact directory
var ErrInvalidName = errors.New("invalid file name")

var extensions = map[Kind][]string{
	KindExport:   {".csv", ".xlsx"},
	KindSnapshot: {".png"},
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"-"`
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Discovery lists artifacts under the configured output directories
type Discovery struct {
	paths *config.Paths
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(paths *config.Paths) *Discovery {
	return &Discovery{paths: paths}
}

// ListExports returns CSV and XLSX exports, newest first
func (d *Discovery) ListExports() ([]FileInfo, error) {
	return d.List(KindExport)
}

// ListSnapshots returns PNG captures, newest first
func (d *Discovery) ListSnapshots() ([]FileInfo, error) {
	return d.List(KindSnapshot)
}

// List returns the artifacts of one kind. A directory that does not exist
// yet holds no artifacts.
func (d *Discovery) List(kind Kind) ([]FileInfo, error) {
	dir, err := d.dir(kind)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	files := []FileInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), extensions[kind]) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Find resolves name to an artifact of kind. The name must be a bare file
// name with one of the kind's extensions.
func (d *Discovery) Find(kind Kind, name string) (FileInfo, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !hasExtension(name, extensions[kind]) {
		return FileInfo{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	dir, err := d.dir(kind)
	if err != nil {
		return FileInfo{}, err
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%w: %q is a directory", ErrInvalidName, name)
	}
	return FileInfo{Path: path, Name: name, Kind: kind, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (d *Discovery) dir(kind Kind) (string, error) {
	switch kind {
	case KindExport:
		return d.paths.ExportsDir, nil
	case KindSnapshot:
		return d.paths.SnapshotsDir, nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// FilterFilesByDateRange keeps files modified strictly between start and end
func FilterFilesByDateRange(files []FileInfo, start, end time.Time) []FileInfo {
	var filtered []FileInfo
	for _, file := range files {
		if file.ModTime.After(start) && file.ModTime.Before(end) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}
