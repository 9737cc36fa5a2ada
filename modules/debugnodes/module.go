package debugnodes

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/internal/valuetype"
	"github.com/zclconf/go-cty/cty"
)

// Owner is the owner name of every member of this module.
const Owner = "Debug"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives printed values. Nil means os.Stdout.
	Out io.Writer
	// LookupEnv resolves environment variables. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)

	mu sync.Mutex
}

// Print writes value on its own line.
func (m *Module) Print(ctx context.Context, value string) error {
	ctxlog.FromContext(ctx).Debug("Printing value.", "length", len(value))

	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintln(out, value)
	return err
}

// EnvVar returns the value of an environment variable and whether it is set.
func (m *Module) EnvVar(name string) (string, bool) {
	if m.LookupEnv != nil {
		return m.LookupEnv(name)
	}
	return os.LookupEnv(name)
}

// Register registers the module's members with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCategory(Owner, marker.Category{Path: "Debug", Icon: "bug", Priority: marker.Ptr(200)})

	r.RegisterMethod(&registry.Method{
		Owner:  Owner,
		Name:   "Print",
		Params: []registry.Param{{Name: "value", Type: valuetype.String}},
		Return: valuetype.Void,
		Fn:     m.Print,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Debug/Print", Tooltip: "Writes a value to the bridge output.", SearchKeywords: []string{"log", "echo"}},
			marker.Input{Param: "value", Default: marker.Ptr(cty.StringVal(""))},
		},
	})
	r.RegisterMethod(&registry.Method{
		Owner: Owner,
		Name:  "EnvVar",
		Params: []registry.Param{
			{Name: "name", Type: valuetype.String},
			{Name: "found", Type: valuetype.Bool, Out: true},
		},
		Return: valuetype.String,
		Fn:     m.EnvVar,
		Markers: []marker.Marker{
			marker.Node{MenuPath: "Debug/Environment/Env Var", Flow: marker.Ptr(false), SearchKeywords: []string{"environment", "getenv"}},
			marker.Output{Param: marker.ReturnPort, DisplayName: "Value"},
			marker.Output{Param: "found", DisplayName: "Found"},
		},
	})
}
