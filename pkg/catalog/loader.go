package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Loader reads prototype documents from the file system.
// It supports a single file or a directory tree.
type Loader struct {
	config *LoaderConfig
}

// NewLoader creates a loader with the given configuration.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Loader{config: config}
}

// Load reads every document under root. Documents that fail to read are reported
// as *LoadError values and skipped; the rest are returned sorted by name.
// The returned error is set when root itself cannot be walked.
func (l *Loader) Load(root string) ([]*Document, []error, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &LoadError{Path: root, Message: "path does not exist", Cause: err}
		}
		return nil, nil, &LoadError{Path: root, Message: "failed to access path", Cause: err}
	}

	if !info.IsDir() {
		doc, err := l.LoadFile(root, filepath.Base(root))
		if err != nil {
			return nil, nil, err
		}
		return []*Document{doc}, nil, nil
	}

	paths, err := l.collectFiles(root)
	if err != nil {
		return nil, nil, err
	}

	docs := make([]*Document, 0, len(paths))
	var failures []error
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		doc, err := l.LoadFile(path, filepath.ToSlash(rel))
		if err != nil {
			failures = append(failures, err)
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, failures, nil
}

// LoadFile reads a single document, checking its size and encoding.
func (l *Loader) LoadFile(path, name string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, &LoadError{Path: path, Message: "file not found", Cause: err}
		case os.IsPermission(err):
			return nil, &LoadError{Path: path, Message: "permission denied", Cause: err}
		}
		return nil, &LoadError{Path: path, Message: "failed to access file", Cause: err}
	}

	if !info.Mode().IsRegular() {
		return nil, &LoadError{Path: path, Message: "not a regular file"}
	}

	if info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}

	if !utf8.Valid(data) {
		return nil, &LoadError{Path: path, Message: "file contains invalid UTF-8 encoding"}
	}

	return &Document{Path: path, Name: name, Data: data, ModTime: info.ModTime()}, nil
}

// collectFiles walks dir and returns the paths of all documents, filtered by extension.
func (l *Loader) collectFiles(dir string) ([]string, error) {
	var files []string
	visited := make(map[string]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !l.config.IncludeHidden && isHidden(d.Name()) && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !l.config.FollowSymlinks {
				return nil
			}
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return &LoadError{Path: path, Message: "failed to resolve symlink", Cause: err}
			}
			if visited[realPath] {
				return nil
			}
			visited[realPath] = true
			if !l.hasValidExtension(realPath) {
				return nil
			}
			files = append(files, path)
			return nil
		}

		if !l.hasValidExtension(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, &LoadError{Path: dir, Message: "failed to walk directory", Cause: err}
	}

	return files, nil
}

// hasValidExtension checks if the file has a document extension.
func (l *Loader) hasValidExtension(path string) bool {
	return matchesExtension(path, l.config.Extensions)
}

func matchesExtension(path string, extensions []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range extensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// IsDirectory checks if the given path is a directory.
func IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
