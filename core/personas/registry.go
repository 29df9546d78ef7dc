package personas

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/northbound-labs/compass/core/session"
)

// Registry holds the active persona catalog: the built-in defaults, possibly
// overlaid by a YAML file. The zero-configuration path never touches disk.
type Registry struct {
	mu   sync.RWMutex
	defs map[ID]Definition

	watcher *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}
	once    sync.Once
}

// defaultRegistry backs the package-level Resolve/Section/PhaseGuidance.
var defaultRegistry = NewRegistry(nil)

// NewRegistry creates a registry seeded with the built-in defaults.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	defs := make(map[ID]Definition, len(defaults))
	for id, d := range defaults {
		defs[id] = cloneDefinition(d)
	}
	return &Registry{defs: defs, logger: logger}
}

// cloneDefinition copies a definition including its guidance map, so no
// registry ever aliases the defaults catalog or another registry.
func cloneDefinition(d Definition) Definition {
	out := d
	out.PhaseGuidance = make(map[session.Phase]string, len(d.PhaseGuidance))
	for phase, text := range d.PhaseGuidance {
		out.PhaseGuidance[phase] = text
	}
	return out
}

// Resolve looks up a persona definition by id.
func (r *Registry) Resolve(id ID) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	return d, ok
}

// Section renders the prompt overlay block for a persona, or "" when absent.
func (r *Registry) Section(id ID) string {
	d, ok := r.Resolve(id)
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Coaching persona: %s\n\n", d.DisplayName)
	b.WriteString(d.Identity)
	b.WriteString("\n\n")
	b.WriteString(d.Tone)
	return b.String()
}

// PhaseGuidance returns the persona's guidance for a phase, or "".
func (r *Registry) PhaseGuidance(id ID, phase session.Phase) string {
	d, ok := r.Resolve(id)
	if !ok {
		return ""
	}
	return d.PhaseGuidance[phase]
}

// overrideFile is the on-disk shape of a persona override document.
type overrideFile struct {
	Personas []Definition `yaml:"personas"`
}

// LoadOverrides merges persona definitions from a YAML file over the
// defaults. Only known ids are accepted; the closed set never grows.
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load persona overrides: %w", err)
	}
	var doc overrideFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse persona overrides: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range doc.Personas {
		stored, ok := r.defs[d.ID]
		if !ok {
			return fmt.Errorf("persona overrides: unknown persona %q", d.ID)
		}
		// Work on a copy; the stored definition's guidance map may be read
		// concurrently through Resolve.
		base := cloneDefinition(stored)
		if d.DisplayName != "" {
			base.DisplayName = d.DisplayName
		}
		if d.Identity != "" {
			base.Identity = d.Identity
		}
		if d.Tone != "" {
			base.Tone = d.Tone
		}
		for phase, text := range d.PhaseGuidance {
			base.PhaseGuidance[phase] = text
		}
		r.defs[d.ID] = base
	}
	return nil
}

// Watch reloads the override file whenever it changes on disk. A failed
// reload keeps the previous catalog and logs a warning; it never tears the
// registry down mid-session.
func (r *Registry) Watch(path string) error {
	if err := r.LoadOverrides(path); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch persona overrides: %w", err)
	}
	// Watch the directory: editors replace files rather than writing in
	// place, which drops the watch on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watch persona overrides: %w", err)
	}

	r.watcher = w
	r.done = make(chan struct{})
	target := filepath.Clean(path)

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := r.LoadOverrides(path); err != nil {
					r.logger.Warn("persona override reload failed",
						"path", path, "error", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Warn("persona override watcher error", "error", err)
			case <-r.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the override watcher, if one is running.
func (r *Registry) Close() error {
	var err error
	r.once.Do(func() {
		if r.done != nil {
			close(r.done)
		}
		if r.watcher != nil {
			err = r.watcher.Close()
		}
	})
	return err
}
