package sim

import (
	"fmt"
	"strings"
	"sync"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Component is a element that is being simulated.
type Component interface {
	Named
	Handler
	Hookable
}

// ComponentBase provides some functions that other component can use.
type ComponentBase struct {
	HookableBase
	sync.Mutex
	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the BasicComponent
func (c *ComponentBase) Name() string {
	return c.name
}

// NameMustBeValid panics if the name is not usable as a component name.
// Names are dot-separated tokens, such as "Bridge.Host".
func NameMustBeValid(name string) {
	if name == "" {
		panic("component name must not be empty")
	}

	for _, token := range strings.Split(name, ".") {
		if token == "" {
			panic(fmt.Sprintf("component name %q has an empty token", name))
		}

		if strings.ContainsAny(token, " \t\n/") {
			panic(fmt.Sprintf("component name %q contains whitespace or '/'",
				name))
		}
	}
}
