package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/object"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/registry"
	"github.com/sceneforge/sceneforge/internal/core/script"
)

// Built-in loader names as registered by the engine core.
const (
	DocumentLoaderName = "document"
	ObjectLoaderName   = "objects"
	ScriptLoaderName   = "scripts"
	AssetLoaderName    = "assets"
)

// DocumentLoader resolves one document and routes its top-level entries into
// the stage's registry verbatim. The generic stage for plain data documents.
type DocumentLoader struct{}

func NewDocumentLoader(map[string]any) (Loader, error) { return &DocumentLoader{}, nil }

func (DocumentLoader) Load(ctx *LoadContext) (map[string]any, error) {
	resolved, err := ctx.Resolver.ResolveFile(ctx.Root, ctx.Document)
	if err != nil {
		return nil, err
	}
	data, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document %s: top level must be a mapping", ctx.Document)
	}

	if ctx.Registry != "" {
		for name, value := range data {
			if err := ctx.Store(name, value); err != nil {
				return nil, err
			}
		}
	}
	return data, nil
}

// objectLoader assembles game objects from a document of name -> spec
// mappings. Prefab specs land in the prefab registry; live objects are
// registered and placed by the builder itself, so the stage needs no target
// registry of its own.
type objectLoader struct {
	builder *object.Builder
}

// NewObjectLoaderFactory closes the object loader over the engine's builder.
func NewObjectLoaderFactory(builder *object.Builder) LoaderFactory {
	return func(map[string]any) (Loader, error) {
		return &objectLoader{builder: builder}, nil
	}
}

func (l *objectLoader) Load(ctx *LoadContext) (map[string]any, error) {
	top, err := ctx.Resolver.FileNode(ctx.Root, ctx.Document)
	if err != nil {
		return nil, err
	}
	if top == nil || top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document %s: top level must be a mapping of object specs", ctx.Document)
	}

	// construction order is declaration order: listener registration and
	// scene membership both depend on it, so walk the node pairs
	built := make(map[string]any, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		name := top.Content[i].Value
		raw, err := ctx.Resolver.ResolveNode(ctx.Root, top.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", name, err)
		}

		var spec object.Spec
		if err := mapstructure.Decode(raw, &spec); err != nil {
			return nil, fmt.Errorf("object %q: %w", name, err)
		}
		obj, err := l.builder.Build(name, spec)
		if err != nil {
			return nil, err
		}
		if obj != nil {
			built[name] = obj
			ctx.Log.Debug("object built",
				log.String("name", name),
				log.String("scene", obj.Scene()),
			)
		}
	}
	return built, nil
}

// scriptLoader walks a directory of lua files and registers a factory per
// script under the script's exported name. The stage's Document names the
// directory relative to the pipeline root.
type scriptLoader struct {
	scripts    *registry.Store[script.Factory]
	dispatcher *events.Dispatcher
}

// NewScriptLoaderFactory closes the script loader over the script registry
// and the dispatcher that backs the emit function exposed to scripts.
func NewScriptLoaderFactory(scripts *registry.Store[script.Factory], dispatcher *events.Dispatcher) LoaderFactory {
	return func(map[string]any) (Loader, error) {
		return &scriptLoader{scripts: scripts, dispatcher: dispatcher}, nil
	}
}

func (l *scriptLoader) Load(ctx *LoadContext) (map[string]any, error) {
	dir := filepath.Join(ctx.Root, ctx.Document)
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("script directory %s: %w", ctx.Document, err)
	}

	loaded := make(map[string]any)
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".lua") {
			continue
		}
		path := filepath.Join(dir, item.Name())
		name, err := script.ExportName(path)
		if err != nil {
			return nil, err
		}
		factory := script.NewLuaFactory(path, l.dispatcher)
		// one registration path: a stage naming the attached script registry
		// must not register every factory twice
		if ctx.Registry != "" {
			if err := ctx.Store(name, factory); err != nil {
				return nil, err
			}
		} else {
			l.scripts.Register(name, factory)
		}
		loaded[name] = path
		ctx.Log.Debug("script registered",
			log.String("name", name),
			log.String("file", item.Name()),
		)
	}
	return loaded, nil
}

// Asset is one entry of an asset manifest. Path is relative to the pipeline
// root; Meta carries format-specific details untouched.
type Asset struct {
	Name string         `mapstructure:"name"`
	Path string         `mapstructure:"path"`
	Meta map[string]any `mapstructure:"meta"`
}

// assetLoader reads an asset manifest and registers each entry after checking
// the file exists. Actual decoding is left to whoever consumes the asset.
type assetLoader struct{}

func NewAssetLoader(map[string]any) (Loader, error) { return &assetLoader{}, nil }

func (assetLoader) Load(ctx *LoadContext) (map[string]any, error) {
	resolved, err := ctx.Resolver.ResolveFile(ctx.Root, ctx.Document)
	if err != nil {
		return nil, err
	}
	entries, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("manifest %s: top level must be a mapping", ctx.Document)
	}

	loaded := make(map[string]any, len(entries))
	for name, raw := range entries {
		var asset Asset
		if err := mapstructure.Decode(raw, &asset); err != nil {
			return nil, fmt.Errorf("asset %q: %w", name, err)
		}
		asset.Name = name
		if asset.Path == "" {
			return nil, fmt.Errorf("asset %q: missing path", name)
		}
		if _, err := os.Stat(filepath.Join(ctx.Root, asset.Path)); err != nil {
			return nil, fmt.Errorf("asset %q: %w", name, err)
		}
		if ctx.Registry != "" {
			if err := ctx.Store(name, asset); err != nil {
				return nil, err
			}
		}
		loaded[name] = asset
	}
	return loaded, nil
}
