package schema

import (
	"context"
	"sort"

	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/discovery"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"golang.org/x/sync/errgroup"
)

// Builder converts discovered members into node descriptors.
type Builder struct {
	universe *valuetype.Universe
	workers  int
}

// NewBuilder creates a builder validating against the given universe. workers
// limits BuildAll parallelism; zero or less means unlimited.
func NewBuilder(u *valuetype.Universe, workers int) *Builder {
	if u == nil {
		u = valuetype.Default()
	}
	return &Builder{universe: u, workers: workers}
}

// Build validates one member. Property members produce a get descriptor and,
// unless read-only, a set descriptor; every other member produces one. All
// violated rules are reported together.
func (b *Builder) Build(ctx context.Context, m *discovery.Member) ([]*NodeDescriptor, []*bridgeerr.ValidationError) {
	ctx, logger := ctxlog.With(ctx, "member", m.ID())
	logger.Debug("Building node descriptor.", "kind", m.Source.Kind.String())

	c := &collector{member: m.ID()}
	var descs []*NodeDescriptor

	switch m.Source.Kind {
	case registry.KindMethod:
		if d := b.buildMethod(ctx, c, m); d != nil {
			descs = append(descs, d)
		}
	case registry.KindProperty:
		descs = b.buildProperty(ctx, c, m)
	case registry.KindEvent:
		if d := b.buildEvent(ctx, c, m); d != nil {
			descs = append(descs, d)
		}
	}

	if len(c.errs) > 0 {
		logger.Warn("Node descriptor rejected.", "errors", len(c.errs))
		return nil, c.errs
	}
	logger.Debug("Node descriptor accepted.", "descriptors", len(descs))
	return descs, nil
}

// BuildResult is the merged outcome of a build pass.
type BuildResult struct {
	// Descriptors are sorted by ID.
	Descriptors []*NodeDescriptor
	// Errors are sorted by member, in rule order within a member.
	Errors  []*bridgeerr.ValidationError
	members map[string]*discovery.Member
}

// Member returns the discovered member a descriptor was built from.
func (r *BuildResult) Member(descriptorID string) (*discovery.Member, bool) {
	m, ok := r.members[descriptorID]
	return m, ok
}

// BuildAll validates members in parallel and merges the outcomes with a
// single writer once every member is done.
func (b *Builder) BuildAll(ctx context.Context, members []*discovery.Member) *BuildResult {
	logger := ctxlog.FromContext(ctx)

	type outcome struct {
		descs []*NodeDescriptor
		errs  []*bridgeerr.ValidationError
	}
	outcomes := make([]outcome, len(members))

	g, gctx := errgroup.WithContext(ctx)
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}
	for i, m := range members {
		g.Go(func() error {
			descs, errs := b.Build(gctx, m)
			outcomes[i] = outcome{descs: descs, errs: errs}
			return nil
		})
	}
	_ = g.Wait()

	res := &BuildResult{members: make(map[string]*discovery.Member)}
	for i, o := range outcomes {
		res.Errors = append(res.Errors, o.errs...)
		for _, d := range o.descs {
			res.Descriptors = append(res.Descriptors, d)
			res.members[d.ID] = members[i]
		}
	}
	sort.Slice(res.Descriptors, func(i, j int) bool { return res.Descriptors[i].ID < res.Descriptors[j].ID })
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Member < res.Errors[j].Member })

	logger.Info("Schema build finished.", "members", len(members), "descriptors", len(res.Descriptors), "errors", len(res.Errors))
	return res
}
