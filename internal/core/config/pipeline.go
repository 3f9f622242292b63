// Package config turns declarative documents into live engine state. A
// pipeline manifest names an ordered set of stages; each stage runs a loader
// against one document, routes loaded entries into a registry, and optionally
// hands the data to a processor for side effects on the singleton scope.
package config

import (
	"fmt"

	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/registry"
	"github.com/sceneforge/sceneforge/internal/core/singleton"
)

// LoadContext carries everything a loader needs for one stage run.
type LoadContext struct {
	Root     string
	Document string
	Registry string
	Args     map[string]any
	Resolver *Resolver
	Scope    *singleton.Scope
	Log      log.Log
}

// Store routes one loaded entry into the stage's target registry. The
// registry is addressed by singleton key so loaders stay decoupled from
// concrete store types.
func (ctx *LoadContext) Store(name string, value any) error {
	if ctx.Registry == "" {
		return fmt.Errorf("store %q: stage has no target registry", name)
	}
	target, err := ctx.Scope.Get(ctx.Registry)
	if err != nil {
		return fmt.Errorf("store %q: %w", name, err)
	}
	sink, ok := target.(registry.Sink)
	if !ok {
		return fmt.Errorf("store %q: singleton %q is not a registry", name, ctx.Registry)
	}
	return sink.Accept(name, value)
}

// Loader reads and interprets one document. The returned data is what a
// processor sees; entries meant for a registry are routed through
// LoadContext.Store as the loader encounters them.
type Loader interface {
	Load(ctx *LoadContext) (map[string]any, error)
}

// LoaderFactory builds a loader from the stage's loader_args.
type LoaderFactory func(args map[string]any) (Loader, error)

// Processor applies loaded data to live engine state.
type Processor interface {
	Process(data map[string]any, args map[string]any, scope *singleton.Scope) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(data map[string]any, args map[string]any, scope *singleton.Scope) error

func (f ProcessorFunc) Process(data, args map[string]any, scope *singleton.Scope) error {
	return f(data, args, scope)
}

// Pipeline executes stage manifests. Stages run strictly in document order;
// the first failing stage aborts the run with a StageError naming it.
type Pipeline struct {
	log        log.Log
	resolver   *Resolver
	loaders    *registry.Store[LoaderFactory]
	processors *registry.Store[Processor]
	scope      *singleton.Scope
}

func NewPipeline(
	resolver *Resolver,
	loaders *registry.Store[LoaderFactory],
	processors *registry.Store[Processor],
	scope *singleton.Scope,
	logger log.Log,
) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		log:        logger,
		resolver:   resolver,
		loaders:    loaders,
		processors: processors,
		scope:      scope,
	}
}

// Run parses the manifest at root/filename and executes its stages in order.
func (p *Pipeline) Run(root, filename string) error {
	stages, err := ParseStages(p.resolver, root, filename)
	if err != nil {
		return err
	}
	return p.RunStages(root, stages)
}

// RunStages executes pre-parsed stages in order.
func (p *Pipeline) RunStages(root string, stages []Stage) error {
	for _, stage := range stages {
		if err := p.runStage(root, stage); err != nil {
			return &StageError{Stage: stage.Name, Document: stage.Document, Err: err}
		}
		p.log.Info("stage complete",
			log.String("stage", stage.Name),
			log.String("document", stage.Document),
		)
	}
	return nil
}

func (p *Pipeline) runStage(root string, stage Stage) error {
	var data map[string]any

	if stage.Loader != "" {
		factory, err := p.loaders.Get(stage.Loader)
		if err != nil {
			return err
		}
		loader, err := factory(stage.LoaderArgs)
		if err != nil {
			return fmt.Errorf("loader %q: %w", stage.Loader, err)
		}

		ctx := &LoadContext{
			Root:     root,
			Document: stage.Document,
			Registry: stage.Registry,
			Args:     stage.LoaderArgs,
			Resolver: p.resolver,
			Scope:    p.scope,
			Log:      p.log.With(log.String("stage", stage.Name)),
		}
		if data, err = loader.Load(ctx); err != nil {
			return fmt.Errorf("loader %q: %w", stage.Loader, err)
		}
	}

	if stage.Processor != "" {
		processor, err := p.processors.Get(stage.Processor)
		if err != nil {
			return err
		}
		if err = processor.Process(data, stage.ProcessorArgs, p.scope); err != nil {
			return fmt.Errorf("processor %q: %w", stage.Processor, err)
		}
	}
	return nil
}
