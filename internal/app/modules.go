package app

import (
	"github.com/vk/blockbind/internal/registry"
	"github.com/vk/blockbind/modules/functions"
	"github.com/vk/blockbind/modules/literals"
	"github.com/vk/blockbind/modules/operators"
	"github.com/vk/blockbind/modules/variables"
)

// coreModules is the definitive list of all kind modules compiled into the
// blockbind binary.
var coreModules = []registry.Module{
	&variables.Module{},
	&functions.Module{},
	&operators.Module{},
	&literals.Module{},
}
