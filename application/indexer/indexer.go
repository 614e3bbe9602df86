// Package indexer discovers and loads a worker's task files from a build
// manifest, then reports the resulting task catalog to the coordinator.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/felixgeelhaar/taskworker/domain/task"
	"github.com/felixgeelhaar/taskworker/domain/wire"
	"github.com/felixgeelhaar/taskworker/infrastructure/errormapper"
	"github.com/felixgeelhaar/taskworker/infrastructure/ipc"
	"github.com/felixgeelhaar/taskworker/infrastructure/logging"
)

// maxConcurrentLoads bounds how many plugin files are opened at once: a
// manifest naming hundreds of dynamically linked task files should not
// try to mmap all of them simultaneously.
const maxConcurrentLoads = 8

// ManifestFile names a single entry point the manifest expects to find
// tasks in. For statically linked builds (the common case) the file is
// assumed already linked via an init() registration and Load is a no-op
// existence check; a ".so" path is dynamically loaded via the standard
// library's plugin package. On disk each entry is either {filePath:string}
// or the equivalent {entry:string}; both decode into Path.
type ManifestFile struct {
	Path string
}

func (f *ManifestFile) UnmarshalJSON(data []byte) error {
	var alt struct {
		FilePath string `json:"filePath"`
		Entry    string `json:"entry"`
	}
	if err := json.Unmarshal(data, &alt); err != nil {
		return err
	}
	f.Path = alt.FilePath
	if f.Path == "" {
		f.Path = alt.Entry
	}
	return nil
}

func (f ManifestFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FilePath string `json:"filePath"`
	}{FilePath: f.Path})
}

// Manifest is the on-disk build manifest read from
// TRIGGER_BUILD_MANIFEST_PATH.
type Manifest struct {
	ConfigPath string         `json:"configPath"`
	Files      []ManifestFile `json:"files"`
}

// DefaultManifestPath is used when TRIGGER_BUILD_MANIFEST_PATH is unset.
const DefaultManifestPath = "./build-manifest.json"

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("indexer: reading manifest %q: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("indexer: parsing manifest %q: %w", path, err)
	}
	return m, nil
}

// Indexer loads every task file named by a manifest into registry and
// emits the resulting catalog over conn.
type Indexer struct {
	registry *task.Registry
	conn     ipc.Connection
	sem      *semaphore.Weighted
}

// New constructs an Indexer that registers tasks into registry and
// reports results over conn.
func New(registry *task.Registry, conn ipc.Connection) *Indexer {
	return &Indexer{registry: registry, conn: conn, sem: semaphore.NewWeighted(maxConcurrentLoads)}
}

// Run loads every file in m, builds the task catalog, and emits the
// completion message. streaming selects between the IndexComplete and
// IndexTasksComplete dispatch shapes.
func (ix *Indexer) Run(ctx context.Context, m Manifest, workerEntryPoint string, streaming bool) error {
	importErrors := ix.loadAll(ctx, m)

	resources := make([]task.Resource, 0, ix.registry.Len())
	for _, t := range ix.registry.List() {
		resources = append(resources, t.AsResource())
	}

	if streaming {
		return ix.conn.Send(wire.IndexTasksComplete{
			Tasks:        resources,
			ImportErrors: importErrors,
		})
	}

	return ix.conn.Send(wire.IndexComplete{
		Manifest: wire.WorkerManifest{
			ConfigPath:           m.ConfigPath,
			Tasks:                resources,
			IncompatiblePackages: []string{},
			WorkerEntryPoint:     workerEntryPoint,
			Runtime:              "go",
		},
		ImportErrors: importErrors,
	})
}

func (ix *Indexer) loadAll(ctx context.Context, m Manifest) []wire.ImportError {
	errsCh := make(chan wire.ImportError, len(m.Files))
	var wg sync.WaitGroup
	for _, f := range m.Files {
		f := f
		if err := ix.sem.Acquire(ctx, 1); err != nil {
			errsCh <- wire.ImportError{FilePath: f.Path, Message: err.Error()}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer ix.sem.Release(1)
			if err := ix.loadFile(f.Path); err != nil {
				wrapped := &errormapper.ErrImportFailed{FilePath: f.Path, Cause: err}
				logging.Warn().Add(logging.Component("indexer")).Add(logging.ErrorField(wrapped)).Msg("failed to import task file")
				errsCh <- wire.ImportError{FilePath: f.Path, Message: wrapped.Error()}
			}
		}()
	}
	wg.Wait()
	close(errsCh)

	out := []wire.ImportError{}
	for e := range errsCh {
		out = append(out, e)
	}
	return out
}

// loadFile brings a single manifest entry's registrations into the
// shared task registry. A statically linked file (the common case) has
// already registered its tasks via init(); this only verifies it
// exists. A ".so" file is opened as a Go plugin and its exported
// Register function invoked, mirroring the dynamic import the
// originating runtime performs per task file.
func (ix *Indexer) loadFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if filepath.Ext(abs) != ".so" {
		if _, err := os.Stat(abs); err != nil {
			return err
		}
		return nil
	}

	p, err := plugin.Open(abs)
	if err != nil {
		return err
	}
	sym, err := p.Lookup("Register")
	if err != nil {
		return err
	}
	register, ok := sym.(func(*task.Registry))
	if !ok {
		return fmt.Errorf("indexer: plugin %q exports Register with the wrong signature", abs)
	}
	register(ix.registry)
	return nil
}
