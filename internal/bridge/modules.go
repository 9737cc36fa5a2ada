package bridge

import (
	"github.com/vk/graphbridge/internal/registry"
	"github.com/vk/graphbridge/modules/debugnodes"
	"github.com/vk/graphbridge/modules/mathnodes"
	"github.com/vk/graphbridge/modules/textnodes"
)

// CoreModules returns the modules compiled into the graphbridge binary. Each
// call returns fresh module instances.
func CoreModules() []registry.Module {
	return []registry.Module{
		&mathnodes.Module{},
		&textnodes.Module{},
		&debugnodes.Module{},
	}
}
