package content

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/inventory"
)

// Subdirectories of the content root.
const (
	StatusDir = "statuses"
	ItemDir   = "items"
	EntityDir = "entities"
	StageDir  = "stages"
)

// Library is the fully loaded and cross-validated content set.
type Library struct {
	Root      string
	Statuses  *effect.Registry
	Items     *inventory.Registry
	// EntityOptions apply to every entity the library instantiates.
	EntityOptions []entity.Option
	templates map[string]*EntityTemplate
	stages    map[string]*StageDef
}

// Load reads every content subdirectory under root. A missing subdirectory is
// treated as empty.
//
// Postcondition: Returns a Library whose cross references all resolve, or an
// error naming the first bad file or every dangling reference.
func Load(root string) (*Library, error) {
	lib := &Library{
		Root:      root,
		Statuses:  effect.NewRegistry(),
		Items:     inventory.NewRegistry(),
		templates: make(map[string]*EntityTemplate),
		stages:    make(map[string]*StageDef),
	}

	if dir := filepath.Join(root, StatusDir); exists(dir) {
		reg, err := effect.LoadDirectory(dir)
		if err != nil {
			return nil, err
		}
		lib.Statuses = reg
	}
	if dir := filepath.Join(root, ItemDir); exists(dir) {
		items, err := inventory.LoadItems(dir)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if err := lib.Items.RegisterItem(it); err != nil {
				return nil, err
			}
		}
	}
	if err := loadYAMLDir(filepath.Join(root, EntityDir), func(path string, t *EntityTemplate) error {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := lib.templates[t.ID]; dup {
			return fmt.Errorf("entity template %q already defined", t.ID)
		}
		lib.templates[t.ID] = t
		return nil
	}); err != nil {
		return nil, err
	}
	if err := loadYAMLDir(filepath.Join(root, StageDir), func(path string, s *StageDef) error {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := lib.stages[s.ID]; dup {
			return fmt.Errorf("stage %q already defined", s.ID)
		}
		lib.stages[s.ID] = s
		return nil
	}); err != nil {
		return nil, err
	}
	if err := lib.crossValidate(); err != nil {
		return nil, err
	}
	return lib, nil
}

func exists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// loadYAMLDir decodes every *.yaml file in dir as a T with unknown fields
// rejected and hands it to fn.
func loadYAMLDir[T any](dir string, fn func(path string, v *T) error) error {
	if !exists(dir) {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		var v T
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := fn(path, &v); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}

// crossValidate checks every reference between content files.
func (l *Library) crossValidate() error {
	resolvers := combat.BuiltinResolvers()
	var errs []error
	for _, t := range l.Templates() {
		for _, ab := range t.Abilities {
			if ab.Resolver != "" {
				if _, ok := resolvers[ab.Resolver]; !ok {
					errs = append(errs, fmt.Errorf("template %q ability %q: unknown resolver %q", t.ID, ab.Name, ab.Resolver))
				}
			}
			errs = append(errs, l.checkStatuses(fmt.Sprintf("template %q ability %q", t.ID, ab.Name), ab.Effects)...)
		}
	}
	for _, it := range l.Items.AllItems() {
		errs = append(errs, l.checkStatuses(fmt.Sprintf("item %q", it.ID), it.Effects)...)
	}
	for _, s := range l.Stages() {
		refs := append(append([]string{}, s.Party...), s.Adversaries...)
		for _, w := range s.Waves {
			refs = append(refs, w.Spawn...)
		}
		for _, id := range refs {
			if _, ok := l.templates[id]; !ok {
				errs = append(errs, fmt.Errorf("stage %q: unknown entity template %q", s.ID, id))
			}
		}
		for kind, table := range s.Loot {
			if _, ok := l.templates[kind]; !ok {
				errs = append(errs, fmt.Errorf("stage %q: loot table for unknown entity %q", s.ID, kind))
			}
			for _, e := range table.Entries {
				if _, ok := l.Items.Item(e.Kind); !ok {
					errs = append(errs, fmt.Errorf("stage %q: loot drops unknown item %q", s.ID, e.Kind))
				}
			}
		}
		for id := range s.StartingItems {
			if _, ok := l.Items.Item(id); !ok {
				errs = append(errs, fmt.Errorf("stage %q: unknown starting item %q", s.ID, id))
			}
		}
		if s.Script != "" && !fileExists(filepath.Join(l.Root, s.Script)) {
			errs = append(errs, fmt.Errorf("stage %q: script %q not found", s.ID, s.Script))
		}
	}
	return errors.Join(errs...)
}

func (l *Library) checkStatuses(owner string, effects []ability.EffectSpec) []error {
	var errs []error
	for _, e := range effects {
		if e.Status == "" || !e.Kind.UsesStatus() {
			continue
		}
		if _, ok := l.Statuses.Get(e.Status); !ok {
			errs = append(errs, fmt.Errorf("%s: unknown status effect %q", owner, e.Status))
		}
	}
	return errs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Template returns the entity template with id.
func (l *Library) Template(id string) (*EntityTemplate, bool) {
	t, ok := l.templates[id]
	return t, ok
}

// Templates returns every template sorted by ID.
func (l *Library) Templates() []*EntityTemplate {
	out := make([]*EntityTemplate, 0, len(l.templates))
	for _, t := range l.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stage returns the stage with id.
func (l *Library) Stage(id string) (*StageDef, bool) {
	s, ok := l.stages[id]
	return s, ok
}

// Stages returns every stage sorted by ID.
func (l *Library) Stages() []*StageDef {
	out := make([]*StageDef, 0, len(l.stages))
	for _, s := range l.stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Spawn instantiates the templates named by ids on side, in order.
func (l *Library) Spawn(ids []string, side entity.Side, opts ...entity.Option) ([]*entity.Entity, error) {
	out := make([]*entity.Entity, 0, len(ids))
	for _, id := range ids {
		t, ok := l.templates[id]
		if !ok {
			return nil, fmt.Errorf("content: unknown entity template %q", id)
		}
		out = append(out, t.NewEntity(side, append(append([]entity.Option{}, l.EntityOptions...), opts...)...))
	}
	return out, nil
}
