package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fileProvider reads secrets mounted as files, as Kubernetes and Docker do.
// A directory path yields one entry per file, a file path one entry named
// after the file.
type fileProvider struct {
	basePath string
}

func newFileProvider(basePath string) (provider, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("secrets: base path %s not accessible: %w", basePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets: base path %s is not a directory", basePath)
	}
	return &fileProvider{basePath: basePath}, nil
}

func (f *fileProvider) Name() ProviderType {
	return ProviderFile
}

func (f *fileProvider) Fetch(ctx context.Context, ref Reference) (Secret, error) {
	target := filepath.Join(f.basePath, filepath.Clean("/"+ref.Path))
	info, err := os.Stat(target)
	if err != nil {
		return Secret{}, fmt.Errorf("secrets: %s not found: %w", ref.Path, err)
	}

	data := make(map[string]string)
	if !info.IsDir() {
		content, err := os.ReadFile(target)
		if err != nil {
			return Secret{}, fmt.Errorf("secrets: failed to read %s: %w", ref.Path, err)
		}
		data[filepath.Base(target)] = strings.TrimSpace(string(content))
		return Secret{Data: data}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return Secret{}, fmt.Errorf("secrets: failed to list %s: %w", ref.Path, err)
	}
	for _, e := range entries {
		// Kubernetes keeps the real files in ..data symlinked directories
		if e.IsDir() || strings.HasPrefix(e.Name(), "..") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(target, e.Name()))
		if err != nil {
			return Secret{}, fmt.Errorf("secrets: failed to read %s/%s: %w", ref.Path, e.Name(), err)
		}
		data[e.Name()] = strings.TrimSpace(string(content))
	}
	return Secret{Data: data}, nil
}
