package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/discovery"
	"github.com/vk/graphbridge/internal/invoke"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/schema"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"
)

// Emitter generates adapters from descriptors.
type Emitter struct{}

// NewEmitter creates an emitter.
func NewEmitter() *Emitter { return &Emitter{} }

// Emit generates the adapter of desc. m is the member desc was built from and
// supplies the implementation.
func (e *Emitter) Emit(ctx context.Context, desc *schema.NodeDescriptor, m *discovery.Member) (*Adapter, error) {
	call, err := callFor(desc, m.Source)
	if err != nil {
		return nil, fmt.Errorf("emit '%s': %w", desc.ID, err)
	}

	a := &Adapter{desc: desc, byKey: make(map[string]*Specialization)}
	for _, types := range product(desc.TypeParams) {
		s := &Specialization{
			desc:    desc,
			key:     specKey(desc.TypeParams, types),
			types:   types,
			inputs:  substitute(desc.Inputs, types),
			outputs: substitute(desc.Outputs, types),
			call:    call,
		}
		a.specs = append(a.specs, s)
		a.byKey[s.key] = s
	}

	ctxlog.FromContext(ctx).Debug("Adapter emitted.", "node", desc.ID, "specializations", len(a.specs))
	return a, nil
}

func callFor(desc *schema.NodeDescriptor, src *registry.Member) (callFunc, error) {
	var fn any
	switch {
	case desc.Kind == registry.KindEvent:
		return nil, nil
	case desc.Accessor == schema.AccessorGet:
		fn = src.Get
	case desc.Accessor == schema.AccessorSet:
		fn = src.Set
	default:
		fn = src.Fn
	}
	shape, err := invoke.Analyze(fn)
	if err != nil {
		return nil, err
	}
	return shape.Call, nil
}

// product enumerates every assignment of allowed types to type parameters,
// in declaration order. It yields one empty assignment when there are none.
func product(params []schema.TypeParam) []map[string]valuetype.Type {
	out := []map[string]valuetype.Type{{}}
	for _, tp := range params {
		next := make([]map[string]valuetype.Type, 0, len(out)*len(tp.Allowed))
		for _, partial := range out {
			for _, t := range tp.Allowed {
				m := make(map[string]valuetype.Type, len(partial)+1)
				for k, v := range partial {
					m[k] = v
				}
				m[tp.Name] = t
				next = append(next, m)
			}
		}
		out = next
	}
	return out
}

func substitute(ports []schema.PortDescriptor, types map[string]valuetype.Type) []schema.PortDescriptor {
	out := make([]schema.PortDescriptor, len(ports))
	for i, p := range ports {
		p.ValueType = p.ValueType.Substitute(types)
		p.Constraint = nil
		if p.HasDefault() {
			if v, err := p.ValueType.Convert(p.Default); err == nil {
				p.Default = v
			} else {
				p.Default = cty.NilVal
			}
		}
		out[i] = p
	}
	return out
}

// Cache holds the adapters of one build pass, keyed by descriptor ID.
type Cache struct {
	emitter *Emitter
	workers int

	mu       sync.RWMutex
	adapters map[string]*Adapter
}

// NewCache creates an empty cache. workers limits EmitAll parallelism; zero
// or less means unlimited.
func NewCache(e *Emitter, workers int) *Cache {
	if e == nil {
		e = NewEmitter()
	}
	return &Cache{emitter: e, workers: workers, adapters: make(map[string]*Adapter)}
}

// EmitAll replaces the cache contents with adapters for every descriptor of
// built. Descriptors that fail to emit are left out and their errors joined.
func (c *Cache) EmitAll(ctx context.Context, built *schema.BuildResult) error {
	logger := ctxlog.FromContext(ctx)

	adapters := make([]*Adapter, len(built.Descriptors))
	errs := make([]error, len(built.Descriptors))

	g, gctx := errgroup.WithContext(ctx)
	if c.workers > 0 {
		g.SetLimit(c.workers)
	}
	for i, d := range built.Descriptors {
		g.Go(func() error {
			m, ok := built.Member(d.ID)
			if !ok {
				errs[i] = fmt.Errorf("emit '%s': descriptor has no source member", d.ID)
				return nil
			}
			adapters[i], errs[i] = c.emitter.Emit(gctx, d, m)
			return nil
		})
	}
	_ = g.Wait()

	next := make(map[string]*Adapter, len(adapters))
	for _, a := range adapters {
		if a != nil {
			next[a.desc.ID] = a
		}
	}

	c.mu.Lock()
	c.adapters = next
	c.mu.Unlock()

	err := errors.Join(errs...)
	logger.Info("Adapters emitted.", "adapters", len(next), "failed", len(adapters)-len(next))
	return err
}

// Get returns the cached adapter of a descriptor.
func (c *Cache) Get(id string) (*Adapter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.adapters[id]
	return a, ok
}

// Len returns the number of cached adapters.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.adapters)
}
