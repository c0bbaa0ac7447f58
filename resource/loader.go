// Package resource loads authored item data: templates, set definitions and
// buff definitions, from YAML or JSON files.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kasuganosora/itemruntime/game/effect"
	"github.com/kasuganosora/itemruntime/game/equip"
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ResourceLoader reads every data file once at startup.
type ResourceLoader struct {
	ItemsDir        string
	SetsFile        string
	BuffsFile       string
	DefaultMaxStack int

	Templates []*item.Template
	Sets      []equip.SetDefinition
	Buffs     effect.Catalog

	logger *zap.Logger
}

// NewLoader creates a loader. Empty sets/buffs paths are skipped.
func NewLoader(itemsDir, setsFile, buffsFile string, logger *zap.Logger) *ResourceLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceLoader{
		ItemsDir:  itemsDir,
		SetsFile:  setsFile,
		BuffsFile: buffsFile,
		Buffs:     effect.Catalog{},
		logger:    logger,
	}
}

// Load parses the items directory concurrently, then the sets and buffs
// files. Templates are sorted by id.
func (rl *ResourceLoader) Load(ctx context.Context) error {
	files, err := dataFiles(rl.ItemsDir)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var templates []*item.Template
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var batch []*item.Template
			if err := decodeFile(path, &batch); err != nil {
				return err
			}
			mu.Lock()
			templates = append(templates, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	for _, t := range templates {
		if t.Stackable && t.MaxStack == 0 && rl.DefaultMaxStack > 0 {
			t.MaxStack = rl.DefaultMaxStack
		}
	}
	rl.Templates = templates

	if rl.SetsFile != "" {
		var sets []equip.SetDefinition
		if err := decodeFile(rl.SetsFile, &sets); err != nil {
			return err
		}
		rl.Sets = rl.validSets(sets)
	}
	if rl.BuffsFile != "" {
		var buffs []effect.BuffDef
		if err := decodeFile(rl.BuffsFile, &buffs); err != nil {
			return err
		}
		for _, b := range buffs {
			if b.ID == "" {
				rl.logger.Warn("buff without id skipped")
				continue
			}
			rl.Buffs[b.ID] = b
		}
	}

	rl.logger.Info("resources loaded",
		zap.Int("files", len(files)),
		zap.Int("templates", len(rl.Templates)),
		zap.Int("sets", len(rl.Sets)),
		zap.Int("buffs", len(rl.Buffs)))
	return nil
}

// validSets drops invalid definitions and any set that repeats an earlier
// set's id or claims a template an earlier set already owns.
func (rl *ResourceLoader) validSets(in []equip.SetDefinition) []equip.SetDefinition {
	out := make([]equip.SetDefinition, 0, len(in))
	seen := make(map[string]bool, len(in))
	owner := make(map[string]string)
	for _, s := range in {
		if err := s.Validate(); err != nil {
			rl.logger.Warn("invalid set definition skipped", zap.String("set", s.ID), zap.Error(err))
			continue
		}
		if seen[s.ID] {
			rl.logger.Warn("duplicate set definition skipped", zap.String("set", s.ID))
			continue
		}
		if m, other, ok := claimed(owner, s.Members); ok {
			rl.logger.Warn("set definition skipped: member already in another set",
				zap.String("set", s.ID), zap.String("template", m), zap.String("other_set", other))
			continue
		}
		seen[s.ID] = true
		for _, m := range s.Members {
			owner[m] = s.ID
		}
		out = append(out, s)
	}
	return out
}

func claimed(owner map[string]string, members []string) (member, set string, ok bool) {
	for _, m := range members {
		if other, ok := owner[m]; ok {
			return m, other, true
		}
	}
	return "", "", false
}

// Registry registers every loaded template. Invalid or duplicate templates
// are skipped with a warning.
func (rl *ResourceLoader) Registry() *item.Registry {
	reg := item.NewRegistry()
	for _, t := range rl.Templates {
		if err := reg.Register(t); err != nil {
			rl.logger.Warn("template skipped", zap.String("template", t.ID), zap.Error(err))
		}
	}
	return reg
}

// dataFiles lists *.yaml, *.yml and *.json files in dir, sorted.
func dataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("resource: read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("resource: read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, out)
	} else {
		err = yaml.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return nil
}
