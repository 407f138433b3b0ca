package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/schavery/qup-optimizer/internal/hexgrid"
)

const defaultGridRadius = 8

// Loader reads the node configuration from disk and caches the normalized
// Ruleset. Safe for concurrent use; call Invalidate after a file change.
type Loader struct {
	baseDir string

	mu    sync.RWMutex
	cache *Ruleset
}

// NewLoader creates a loader rooted at baseDir (expects baseDir/nodes.yaml).
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// NodesPath is the file the loader reads node definitions from.
func (l *Loader) NodesPath() string {
	return filepath.Join(l.baseDir, "nodes.yaml")
}

// Load returns the cached Ruleset, reading and validating the YAML on the
// first call or after Invalidate.
func (l *Loader) Load() (*Ruleset, error) {
	l.mu.RLock()
	if rs := l.cache; rs != nil {
		l.mu.RUnlock()
		return rs, nil
	}
	l.mu.RUnlock()

	raw, err := readYAML(l.NodesPath())
	if err != nil {
		return nil, fmt.Errorf("read nodes config: %w", err)
	}
	if err := ValidateRaw(raw); err != nil {
		return nil, err
	}
	rs, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache = rs
	l.mu.Unlock()
	return rs, nil
}

// Invalidate drops the cached ruleset so the next Load re-reads the file.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = nil
}

func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// Normalize converts a validated RawConfig into the engine's Ruleset.
func Normalize(cfg RawConfig) (*Ruleset, error) {
	rs := &Ruleset{
		Version:    cfg.Version,
		GridRadius: defaultGridRadius,
		Anchor:     cfg.Anchor,
		Static:     make(map[string]*NodeDef),
		Movable:    make(map[string]*NodeDef),
	}
	if cfg.GridRadius != nil {
		rs.GridRadius = *cfg.GridRadius
	}

	for _, rn := range cfg.Nodes {
		def := &NodeDef{
			Name:         rn.Name,
			Static:       rn.Position != nil,
			BaseAVS:      rn.BaseAVS,
			Effect:       EffectKind(rn.Effect),
			Params:       rn.Params,
			UpgradePaths: rn.Upgrades,
			Order:        rn.Order,
		}
		for _, t := range rn.Triggers {
			def.Triggers = append(def.Triggers, TriggerType(t))
		}
		if rn.Position != nil {
			def.Position = hexgrid.Hex{Q: rn.Position[0], R: rn.Position[1], S: rn.Position[2]}
			rs.Static[def.Name] = def
		} else {
			rs.Movable[def.Name] = def
		}
	}

	if rs.Anchor != "" {
		if _, ok := rs.Node(rs.Anchor); !ok {
			return nil, fmt.Errorf("%w: anchor node %q not defined", ErrConfig, rs.Anchor)
		}
	}
	return rs, nil
}
