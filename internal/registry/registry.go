package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/menupath"
)

// Module is the interface that all node modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// CategoryBinding associates a category marker with the owner (grouping) it
// was declared on. Owner may be empty for a category declared on its own.
type CategoryBinding struct {
	Owner  string
	Marker marker.Category
}

// Registry holds all registered members and category markers for a single
// application instance. It is populated at startup and is not safe for
// concurrent mutation.
type Registry struct {
	members    map[string]*Member
	categories []CategoryBinding
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		members: make(map[string]*Member),
	}
}

// RegisterMethod registers an invocable method.
func (r *Registry) RegisterMethod(m *Method) {
	r.register(&Member{
		Owner:   m.Owner,
		Name:    m.Name,
		Kind:    KindMethod,
		Access:  m.Access,
		Params:  m.Params,
		Return:  m.Return,
		Fn:      m.Fn,
		Markers: m.Markers,
	})
}

// RegisterProperty registers a property.
func (r *Registry) RegisterProperty(p *Property) {
	r.register(&Member{
		Owner:   p.Owner,
		Name:    p.Name,
		Kind:    KindProperty,
		Access:  p.Access,
		Type:    p.Type,
		Get:     p.Get,
		Set:     p.Set,
		Markers: p.Markers,
	})
}

// RegisterEvent registers an event.
func (r *Registry) RegisterEvent(e *Event) {
	r.register(&Member{
		Owner:   e.Owner,
		Name:    e.Name,
		Kind:    KindEvent,
		Access:  e.Access,
		Params:  e.Params,
		Markers: e.Markers,
	})
}

func (r *Registry) register(m *Member) {
	id := m.ID()
	if m.Name == "" {
		panic(fmt.Sprintf("member of owner '%s' registered without a name", m.Owner))
	}
	if _, exists := r.members[id]; exists {
		panic(fmt.Sprintf("member with identity '%s' already registered", id))
	}
	slog.Debug("Registering member.", "member", id, "kind", m.Kind.String())
	r.members[id] = m.clone()
}

// RegisterCategory binds a category marker to an owner. It panics if the
// owner already has a category.
func (r *Registry) RegisterCategory(owner string, c marker.Category) {
	if err := r.BindCategory(owner, c); err != nil {
		panic(err.Error())
	}
}

// BindCategory binds a category marker to an owner, returning an error if the
// owner already has one or the path is not a valid menu path. Owner-less
// categories can be bound any number of times.
func (r *Registry) BindCategory(owner string, c marker.Category) error {
	if _, err := menupath.Parse(c.Path); err != nil {
		return fmt.Errorf("category path: %w", err)
	}
	if owner != "" {
		if _, exists := r.CategoryOf(owner); exists {
			return fmt.Errorf("category for owner '%s' already registered", owner)
		}
	}
	slog.Debug("Registering category.", "owner", owner, "path", c.Path)
	r.categories = append(r.categories, CategoryBinding{Owner: owner, Marker: c})
	return nil
}

// Attach appends markers to an already registered member.
func (r *Registry) Attach(memberID string, markers ...marker.Marker) error {
	m, ok := r.members[memberID]
	if !ok {
		return fmt.Errorf("member '%s' is not registered", memberID)
	}
	m.Markers = append(m.Markers, markers...)
	return nil
}

// Member looks up a member by its fully-qualified identity.
func (r *Registry) Member(id string) (*Member, bool) {
	m, ok := r.members[id]
	return m, ok
}

// Members returns all registered members sorted by identity.
func (r *Registry) Members() []*Member {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*Member, len(ids))
	for i, id := range ids {
		out[i] = r.members[id]
	}
	return out
}

// CategoryOf returns the category bound to an owner.
func (r *Registry) CategoryOf(owner string) (marker.Category, bool) {
	for _, b := range r.categories {
		if b.Owner == owner && owner != "" {
			return b.Marker, true
		}
	}
	return marker.Category{}, false
}

// Categories returns all category bindings in registration order.
func (r *Registry) Categories() []CategoryBinding {
	return append([]CategoryBinding(nil), r.categories...)
}

// Clone returns a deep enough copy that attaching markers to the clone leaves
// the original untouched.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		members:    make(map[string]*Member, len(r.members)),
		categories: append([]CategoryBinding(nil), r.categories...),
	}
	for id, m := range r.members {
		c.members[id] = m.clone()
	}
	return c
}
