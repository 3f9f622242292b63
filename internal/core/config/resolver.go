package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/registry"
	"github.com/sceneforge/sceneforge/internal/core/singleton"
)

// Directive tags recognized while a document is parsed.
const (
	tagInclude   = "!include"
	tagLazy      = "!lazy"
	tagCalc      = "!calc"
	tagClassGet  = "!classget"
	tagClassInit = "!classinit"
)

// Resolver expands directives while walking a document's node tree; expansion
// happens during the parse walk, not as a post-pass, so directive results are
// visible to enclosing nodes.
type Resolver struct {
	scope *singleton.Scope
	calc  *Calc
	log   log.Log
}

func NewResolver(scope *singleton.Scope, logger log.Log) *Resolver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Resolver{
		scope: scope,
		calc:  NewCalc(),
		log:   logger,
	}
}

// ResolveFile parses and resolves the document at root/filename. Includes are
// resolved against the same root unless their path overrides it.
func (r *Resolver) ResolveFile(root, filename string) (any, error) {
	data, err := os.ReadFile(filepath.Join(root, filename))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", filename, err)
	}
	return r.ResolveBytes(root, data)
}

// FileNode parses the document at root/filename and returns its top-level
// node unresolved. Loaders that need document order walk the node pairs and
// resolve values one by one.
func (r *Resolver) FileNode(root, filename string) (*yaml.Node, error) {
	data, err := os.ReadFile(filepath.Join(root, filename))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", filename, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", filename, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

// ResolveBytes parses and resolves an in-memory document.
func (r *Resolver) ResolveBytes(root string, data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return r.ResolveNode(root, doc.Content[0])
}

// ResolveNode expands one node (and everything under it) into plain Go
// values: map[string]any, []any, scalars, live singleton instances and
// deferred handles.
func (r *Resolver) ResolveNode(root string, n *yaml.Node) (any, error) {
	switch n.Tag {
	case tagInclude:
		return r.include(root, n)
	case tagLazy:
		return r.lazy(root, n)
	case tagCalc:
		return r.calcNode(root, n)
	case tagClassGet:
		return r.classGet(n)
	case tagClassInit:
		return r.classInit(root, n)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return r.ResolveNode(root, n.Content[0])
	case yaml.AliasNode:
		return r.ResolveNode(root, n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			value, err := r.ResolveNode(root, n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = value
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := r.ResolveNode(root, item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("scalar at line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported node kind %d at line %d", n.Kind, n.Line)
	}
}

// include splices another document's resolved tree at this node. Nested
// includes resolve recursively against the same root.
func (r *Resolver) include(root string, n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode || n.Value == "" {
		return nil, fmt.Errorf("%w: !include wants a file path (line %d)", ErrDirective, n.Line)
	}
	spliced, err := r.ResolveFile(root, n.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: !include %s: %v", ErrDirective, n.Value, err)
	}
	return spliced, nil
}

// lazy wraps a registry reference so lookup failure is deferred to first use.
func (r *Resolver) lazy(root string, n *yaml.Node) (any, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: !lazy wants a mapping (line %d)", ErrDirective, n.Line)
	}
	fields, err := r.mappingStrings(root, n)
	if err != nil {
		return nil, fmt.Errorf("%w: !lazy: %v", ErrDirective, err)
	}
	registryKey, name := fields["registry"], fields["name"]
	if registryKey == "" || name == "" {
		return nil, fmt.Errorf("%w: !lazy wants registry and name (line %d)", ErrDirective, n.Line)
	}

	scope := r.scope
	return singleton.NewDeferred(func() (any, error) {
		store, err := scope.Get(registryKey)
		if err != nil {
			return nil, err
		}
		sink, ok := store.(registry.Sink)
		if !ok {
			return nil, fmt.Errorf("singleton %q is not a registry", registryKey)
		}
		entry, found := sink.Lookup(name)
		if !found {
			return nil, fmt.Errorf("%s[%s]: %w", registryKey, name, registry.ErrNotFound)
		}
		return entry, nil
	}), nil
}

// calcNode evaluates an arithmetic expression inline and substitutes its
// numeric result. Accepts a bare expression scalar or the mapping form
// {values: [...], formula: "v1 + v2"}.
func (r *Resolver) calcNode(root string, n *yaml.Node) (any, error) {
	var formula string
	var values []any

	switch n.Kind {
	case yaml.ScalarNode:
		formula = n.Value
	case yaml.MappingNode:
		resolved, err := r.resolveMapping(root, n)
		if err != nil {
			return nil, fmt.Errorf("%w: !calc: %v", ErrDirective, err)
		}
		formula, _ = resolved["formula"].(string)
		values, _ = resolved["values"].([]any)
	default:
		return nil, fmt.Errorf("%w: !calc wants an expression or mapping (line %d)", ErrDirective, n.Line)
	}
	if formula == "" {
		return nil, fmt.Errorf("%w: !calc missing formula (line %d)", ErrDirective, n.Line)
	}

	result, err := r.calc.Eval(formula, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirective, err)
	}
	if result == math.Trunc(result) {
		return int(result), nil
	}
	return result, nil
}

// classGet resolves or creates (with no args) a singleton by key. An existing
// key returns the live instance unchanged.
func (r *Resolver) classGet(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode || n.Value == "" {
		return nil, fmt.Errorf("%w: !classget wants a singleton key (line %d)", ErrDirective, n.Line)
	}
	instance, err := r.scope.GetOrCreate(n.Value, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: !classget %s: %v", ErrDirective, n.Value, err)
	}
	return instance, nil
}

// classInit resolves or creates a singleton by key with constructor args.
// Idempotent on existing keys.
func (r *Resolver) classInit(root string, n *yaml.Node) (any, error) {
	if n.Kind == yaml.ScalarNode {
		return r.classGet(n)
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: !classinit wants a mapping (line %d)", ErrDirective, n.Line)
	}
	resolved, err := r.resolveMapping(root, n)
	if err != nil {
		return nil, fmt.Errorf("%w: !classinit: %v", ErrDirective, err)
	}
	key, _ := resolved["key"].(string)
	if key == "" {
		key, _ = resolved["type"].(string)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: !classinit missing key (line %d)", ErrDirective, n.Line)
	}
	args, _ := resolved["args"].(map[string]any)

	instance, err := r.scope.GetOrCreate(key, args)
	if err != nil {
		return nil, fmt.Errorf("%w: !classinit %s: %v", ErrDirective, key, err)
	}
	return instance, nil
}

func (r *Resolver) resolveMapping(root string, n *yaml.Node) (map[string]any, error) {
	clean := *n
	clean.Tag = "!!map"
	resolved, err := r.ResolveNode(root, &clean)
	if err != nil {
		return nil, err
	}
	m, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected mapping at line %d", n.Line)
	}
	return m, nil
}

func (r *Resolver) mappingStrings(root string, n *yaml.Node) (map[string]string, error) {
	resolved, err := r.resolveMapping(root, n)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(resolved))
	for k, v := range resolved {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q: expected string, got %T", k, v)
		}
		out[k] = s
	}
	return out, nil
}
