package command

import (
	"errors"
	"fmt"
	"sort"

	"github.com/soyeahso/irccore/internal/routing"
)

var (
	ErrNilGroup   = errors.New("group can't be nil")
	ErrSelfGroup  = errors.New("group can't contain itself")
	ErrRootGroup  = errors.New("can't add a root (unnamed) group as a subgroup")
	ErrUnnamedCmd = errors.New("command definition needs a name")
	ErrNoHandler  = errors.New("command definition needs a handler")
)

// Handler runs a command in a context.
type Handler func(cmd *Command, ctx *routing.Context) error

// HelpFunc returns the help lines of a command.
type HelpFunc func() []string

// Definition is a named command.
type Definition struct {
	Name string
	Run  Handler
	Help HelpFunc
}

// HelpLines returns the definition's help, or nil.
func (d *Definition) HelpLines() []string {
	if d.Help == nil {
		return nil
	}
	return d.Help()
}

// Builder returns the command table of a group.
type Builder func() []Definition

// Group is a node in the command tree.
type Group struct {
	name       string
	build      Builder
	registered bool
	commands   map[string]*Definition
	subGroups  map[string]*Group
}

// NewGroup creates a group whose commands come from build. The root of a
// tree has an empty name and a nil builder.
func NewGroup(name string, build Builder) *Group {
	return &Group{
		name:      name,
		build:     build,
		commands:  make(map[string]*Definition),
		subGroups: make(map[string]*Group),
	}
}

// Name returns the group name; empty for a root.
func (g *Group) Name() string { return g.name }

// RegisterAll registers the builder's commands. Later calls do nothing.
func (g *Group) RegisterAll() error {
	if g.registered {
		return nil
	}
	g.registered = true
	if g.build == nil {
		return nil
	}
	for _, def := range g.build() {
		if err := g.Register(def); err != nil {
			return fmt.Errorf("group %q: %w", g.name, err)
		}
	}
	return nil
}

// Register adds or replaces a command definition.
func (g *Group) Register(def Definition) error {
	if def.Name == "" {
		return ErrUnnamedCmd
	}
	if def.Run == nil {
		return fmt.Errorf("%s: %w", def.Name, ErrNoHandler)
	}
	d := def
	g.commands[def.Name] = &d
	return nil
}

// Definition looks up a command by exact name.
func (g *Group) Definition(name string) (*Definition, bool) {
	d, ok := g.commands[name]
	return d, ok
}

// Definitions returns the group's commands sorted by name.
func (g *Group) Definitions() []*Definition {
	out := make([]*Definition, 0, len(g.commands))
	for _, d := range g.commands {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddSubGroup attaches sub under g and registers sub's commands once.
func (g *Group) AddSubGroup(sub *Group) error {
	if sub == nil {
		return ErrNilGroup
	}
	if sub == g || sub.contains(g) {
		return ErrSelfGroup
	}
	if sub.name == "" {
		return ErrRootGroup
	}
	if err := sub.RegisterAll(); err != nil {
		return err
	}
	g.subGroups[sub.name] = sub
	return nil
}

// SubGroup looks up a direct child by name.
func (g *Group) SubGroup(name string) (*Group, bool) {
	s, ok := g.subGroups[name]
	return s, ok
}

// SubGroups returns the direct children sorted by name.
func (g *Group) SubGroups() []*Group {
	out := make([]*Group, 0, len(g.subGroups))
	for _, s := range g.subGroups {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// contains reports whether target is g or below it.
func (g *Group) contains(target *Group) bool {
	if g == target {
		return true
	}
	for _, s := range g.subGroups {
		if s.contains(target) {
			return true
		}
	}
	return false
}
