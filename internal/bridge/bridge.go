package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/vk/graphbridge/internal/adapter"
	"github.com/vk/graphbridge/internal/category"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/discovery"
	"github.com/vk/graphbridge/internal/dispatch"
	"github.com/vk/graphbridge/internal/manifest"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/schema"
	"github.com/vk/graphbridge/internal/valuetype"
)

// ErrUnknownDescriptor is wrapped by lookups of a descriptor ID that is not
// part of the current build.
var ErrUnknownDescriptor = errors.New("unknown descriptor")

// snapshot is the immutable output of one rebuild.
type snapshot struct {
	report   *Report
	built    *schema.BuildResult
	index    *category.Index
	adapters *adapter.Cache
	byID     map[string]*schema.NodeDescriptor
}

// Bridge encapsulates the bridge's dependencies, configuration and the
// artifacts of the most recent build.
type Bridge struct {
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	universe *valuetype.Universe
	base     *registry.Registry
	builder  *schema.Builder
	runtime  *dispatch.Runtime

	// rebuildMu serializes rebuilds; mu guards current.
	rebuildMu sync.Mutex
	mu        sync.RWMutex
	current   *snapshot

	httpServer *http.Server
}

// New is the constructor for the bridge. It registers modules (the core
// modules when none are given) into its own isolated registry. Nothing is
// built until Rebuild is called.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) *Bridge {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	base := registry.New()
	if len(modules) == 0 {
		modules = CoreModules()
	}
	for _, mod := range modules {
		mod.Register(base)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	u := valuetype.Default()
	return &Bridge{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		universe: u,
		base:     base,
		builder:  schema.NewBuilder(u, cfg.WorkerCount),
		runtime:  dispatch.NewRuntime(),
	}
}

// Context returns the bridge's root context, carrying its logger.
func (b *Bridge) Context() context.Context { return b.ctx }

// Rebuild runs the full pipeline against a fresh clone of the registered
// modules and publishes the result. A manifest that fails to load aborts the
// rebuild and keeps the previous build; member level errors are collected in
// the report and only exclude the offending members.
func (b *Bridge) Rebuild(ctx context.Context) (*Report, error) {
	b.rebuildMu.Lock()
	defer b.rebuildMu.Unlock()

	ctx, logger := ctxlog.With(ctx, "component", "rebuild")
	logger.Info("Rebuild started.", "manifest_paths", len(b.config.ManifestPaths))

	set, err := manifest.Load(ctx, b.universe, b.config.ManifestPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifests: %w", err)
	}

	reg := b.base.Clone()
	report := &Report{Files: set.Files}
	report.Discovery = append(report.Discovery, set.Apply(ctx, reg)...)

	scanned := discovery.Scan(ctx, reg)
	report.Discovery = append(report.Discovery, scanned.Errors...)

	built := b.builder.BuildAll(ctx, scanned.Members)
	report.Validation = built.Errors
	report.Descriptors = len(built.Descriptors)

	bindings := reg.Categories()
	cats := make([]marker.Category, len(bindings))
	for i, c := range bindings {
		cats[i] = c.Marker
	}
	index := category.Build(built.Descriptors, cats)

	cache := adapter.NewCache(nil, b.config.WorkerCount)
	report.Emission = cache.EmitAll(ctx, built)
	report.Adapters = cache.Len()

	byID := make(map[string]*schema.NodeDescriptor, len(built.Descriptors))
	for _, d := range built.Descriptors {
		byID[d.ID] = d
	}

	b.mu.Lock()
	b.current = &snapshot{report: report, built: built, index: index, adapters: cache, byID: byID}
	b.mu.Unlock()

	if report.OK() {
		logger.Info("Rebuild finished.", "descriptors", report.Descriptors, "adapters", report.Adapters)
	} else {
		logger.Warn("Rebuild finished with errors.",
			"descriptors", report.Descriptors,
			"discovery_errors", len(report.Discovery),
			"validation_errors", len(report.Validation),
			"emission_failed", report.Emission != nil,
		)
	}
	return report, nil
}

func (b *Bridge) snapshot() (*snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return nil, fmt.Errorf("bridge has not been built yet")
	}
	return b.current, nil
}

// Report returns the report of the most recent rebuild, nil before the first.
func (b *Bridge) Report() *Report {
	s, err := b.snapshot()
	if err != nil {
		return nil
	}
	return s.report
}

// Index returns the category index of the most recent rebuild.
func (b *Bridge) Index() (*category.Index, error) {
	s, err := b.snapshot()
	if err != nil {
		return nil, err
	}
	return s.index, nil
}

// Descriptors returns the descriptors of the most recent rebuild, sorted by
// ID.
func (b *Bridge) Descriptors() []*schema.NodeDescriptor {
	s, err := b.snapshot()
	if err != nil {
		return nil
	}
	return append([]*schema.NodeDescriptor(nil), s.built.Descriptors...)
}

// Descriptor looks up one descriptor by ID.
func (b *Bridge) Descriptor(id string) (*schema.NodeDescriptor, error) {
	s, err := b.snapshot()
	if err != nil {
		return nil, err
	}
	d, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownDescriptor, id)
	}
	return d, nil
}

// Adapter looks up the adapter of one descriptor.
func (b *Bridge) Adapter(id string) (*adapter.Adapter, error) {
	s, err := b.snapshot()
	if err != nil {
		return nil, err
	}
	a, ok := s.adapters.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownDescriptor, id)
	}
	return a, nil
}

// Activate binds a descriptor's adapter to the given connected port types and
// runs one activation of it. Binding errors are returned before anything
// executes; execution faults are recorded on the returned activation.
func (b *Bridge) Activate(ctx context.Context, id string, types map[string]valuetype.Type, in adapter.Bindings) (*dispatch.Activation, error) {
	a, err := b.Adapter(id)
	if err != nil {
		return nil, err
	}
	spec, err := a.Bind(types)
	if err != nil {
		return nil, err
	}
	return b.runtime.Activate(ctx, spec, in), nil
}

// Members returns the IDs of every registered member, including those
// excluded from the current build.
func (b *Bridge) Members() []string {
	members := b.base.Members()
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID()
	}
	sort.Strings(ids)
	return ids
}
