package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/domain"
)

var flowExts = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// LoadFlow reads a single flow file.
func LoadFlow(path string) (*domain.FlowDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow %s: %w", path, err)
	}
	defer f.Close()

	flow, err := DecodeFlow(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flow, nil
}

// LoadDir reads every flow file in dir, sorted by file name.
// Files ending in .actions.yaml (or .json/.yml) are skipped; see LoadCatalog.
func LoadDir(dir string) ([]*domain.FlowDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !flowExts[filepath.Ext(e.Name())] || isCatalogFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	flows := make([]*domain.FlowDefinition, 0, len(names))
	for _, name := range names {
		flow, err := LoadFlow(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		flows = append(flows, flow)
	}
	return flows, nil
}

// NewLoader builds an in-memory loader from a flow file or directory.
// When activeID is set it overrides the Active flags in the files.
func NewLoader(path, activeID string) (*memory.Loader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var flows []*domain.FlowDefinition
	if info.IsDir() {
		flows, err = LoadDir(path)
	} else {
		var f *domain.FlowDefinition
		f, err = LoadFlow(path)
		flows = []*domain.FlowDefinition{f}
	}
	if err != nil {
		return nil, err
	}

	loader, err := memory.NewLoader(flows...)
	if err != nil {
		return nil, err
	}
	switch {
	case activeID != "":
		err = loader.Activate(activeID)
	case len(flows) == 1:
		err = loader.Activate(flows[0].ID)
	}
	if err != nil {
		return nil, err
	}
	return loader, nil
}

// LoadCatalog reads write actions from a file into an in-memory catalog.
// An empty path yields an empty catalog.
func LoadCatalog(path string) (*memory.Catalog, error) {
	if path == "" {
		return memory.NewCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open actions %s: %w", path, err)
	}
	defer f.Close()

	actions, err := DecodeWriteActions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return memory.NewCatalog(actions...), nil
}

func isCatalogFile(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(base, ".actions")
}
