package materialize

import (
	"github.com/example/load-template/internal/manifest"
)

// Layer is one input of a merge. Later layers win per key.
type Layer struct {
	Name     string
	Manifest *manifest.Manifest
	// Skip drops keys of this layer before they are applied.
	Skip func(key string) bool
}

// Layer names used by the materializer.
const (
	LayerApp      = "app"
	LayerTemplate = "template"
	LayerOverride = "override"
)

var blacklist = map[string]struct{}{
	"name":                 {},
	"version":              {},
	"description":          {},
	"keywords":             {},
	"bugs":                 {},
	"license":              {},
	"author":               {},
	"contributors":         {},
	"files":                {},
	"browser":              {},
	"bin":                  {},
	"man":                  {},
	"directories":          {},
	"repository":           {},
	"peerDependencies":     {},
	"bundledDependencies":  {},
	"optionalDependencies": {},
	"engineStrict":         {},
	"os":                   {},
	"cpu":                  {},
	"preferGlobal":         {},
	"private":              {},
	"publishConfig":        {},
}

// Blacklisted reports whether an override layer may not set key.
func Blacklisted(key string) bool {
	_, ok := blacklist[key]
	return ok
}

// Merge applies layers in order, last write wins. Keys keep the position of
// their first appearance.
func Merge(layers ...Layer) *manifest.Manifest {
	out := manifest.New()
	for _, layer := range layers {
		if layer.Manifest == nil {
			continue
		}
		for _, key := range layer.Manifest.Keys() {
			if layer.Skip != nil && layer.Skip(key) {
				continue
			}
			v, _ := layer.Manifest.Get(key)
			out.Set(key, v)
		}
	}
	return out
}

// section projects every layer onto its nested object under key. Layers
// without an object there contribute nothing.
func section(key string, layers ...Layer) []Layer {
	out := make([]Layer, 0, len(layers))
	for _, layer := range layers {
		out = append(out, Layer{Name: layer.Name, Manifest: layer.Manifest.Object(key)})
	}
	return out
}

// Layers is the full input of a manifest merge.
type Layers struct {
	App      *manifest.Manifest
	Template *manifest.Manifest
	Override *manifest.Manifest
}

// Final computes the materialized manifest. Top-level fields resolve
// template, then app, then the blacklist-filtered override. Dependency maps
// and scripts resolve app, then template, then override; dependency maps
// are sorted by name while scripts keep merge order.
func (l Layers) Final() *manifest.Manifest {
	app := Layer{Name: LayerApp, Manifest: l.App}
	tmpl := Layer{Name: LayerTemplate, Manifest: l.Template}
	override := Layer{Name: LayerOverride, Manifest: l.Override, Skip: Blacklisted}

	final := Merge(tmpl, app, override).Clone()
	final.Set(manifest.Scripts, Merge(section(manifest.Scripts, app, tmpl, override)...))
	final.Set(manifest.Dependencies, Merge(section(manifest.Dependencies, app, tmpl, override)...).Sorted())
	final.Set(manifest.DevDependencies, Merge(section(manifest.DevDependencies, app, tmpl, override)...).Sorted())
	return final
}
