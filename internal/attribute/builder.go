package attribute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/rtc6-controller/internal/monitoring"
)

// Builder collects attribute and command declarations under dotted paths
// and checks them once in Build.
type Builder struct {
	attrs    []Attribute
	commands []Command
	metrics  *monitoring.Metrics
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// WithMetrics counts rejected writes on the built registry.
func (b *Builder) WithMetrics(m *monitoring.Metrics) *Builder {
	b.metrics = m
	return b
}

// Scope returns a view of b that prefixes every declared name with path.
func (b *Builder) Scope(path ...string) *Scope {
	return &Scope{b: b, prefix: strings.Join(path, ".")}
}

// Scope declares names relative to a dotted prefix.
type Scope struct {
	b      *Builder
	prefix string
}

func (s *Scope) join(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "." + name
}

// Scope nests a further path below s.
func (s *Scope) Scope(path ...string) *Scope {
	return &Scope{b: s.b, prefix: s.join(strings.Join(path, "."))}
}

// Attribute declares a, naming it relative to the scope.
func (s *Scope) Attribute(a Attribute) *Scope {
	a.Name = s.join(a.Name)
	s.b.attrs = append(s.b.attrs, a)
	return s
}

// Command declares c, naming it relative to the scope.
func (s *Scope) Command(name, description string, fn func() error) *Scope {
	s.b.commands = append(s.b.commands, Command{Name: s.join(name), Description: description, Fn: fn})
	return s
}

// Build validates the declarations and returns the registry.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{
		attrs:    make(map[string]*entry, len(b.attrs)),
		commands: make(map[string]Command, len(b.commands)),
		groups:   make(map[string][]string),
		metrics:  b.metrics,
	}
	var errs []error
	for _, a := range b.attrs {
		if err := b.check(a); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.attrs[a.Name]; dup {
			errs = append(errs, fmt.Errorf("attribute %s declared twice", a.Name))
			continue
		}
		e := &entry{Attribute: a}
		if a.Initial != nil {
			v, err := coerce(a.Kind, a.Initial)
			if err != nil {
				errs = append(errs, fmt.Errorf("attribute %s: initial value: %w", a.Name, err))
				continue
			}
			e.value = v
		}
		r.attrs[a.Name] = e
		r.order = append(r.order, a.Name)
		if g := a.Group(); g != "" {
			r.groups[g] = append(r.groups[g], a.Name)
		}
	}
	for _, c := range b.commands {
		if c.Fn == nil {
			errs = append(errs, fmt.Errorf("command %s has no function", c.Name))
			continue
		}
		if _, dup := r.commands[c.Name]; dup {
			errs = append(errs, fmt.Errorf("command %s declared twice", c.Name))
			continue
		}
		if _, clash := r.attrs[c.Name]; clash {
			errs = append(errs, fmt.Errorf("command %s clashes with an attribute", c.Name))
			continue
		}
		r.commands[c.Name] = c
		r.cmdOrder = append(r.cmdOrder, c.Name)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func (b *Builder) check(a Attribute) error {
	switch {
	case a.Name == "":
		return errors.New("attribute with empty name")
	case a.Mode == ReadOnly && a.Handler != nil:
		return fmt.Errorf("attribute %s is read-only but has a write handler", a.Name)
	case a.Mode == WriteOnly && a.Read != nil:
		return fmt.Errorf("attribute %s is write-only but has a read function", a.Name)
	case len(a.Allowed) > 0 && a.Kind != String:
		return fmt.Errorf("attribute %s: allowed values require a string attribute", a.Name)
	}
	if g, ok := a.Handler.(GroupCommand); ok {
		if g.Group == "" || g.Fn == nil {
			return fmt.Errorf("attribute %s: group command needs a group name and function", a.Name)
		}
		if a.Initial == nil {
			return fmt.Errorf("attribute %s: commit group %s members need an initial value", a.Name, g.Group)
		}
	}
	if s, ok := a.Handler.(SingleCommand); ok && s.Fn == nil {
		return fmt.Errorf("attribute %s: single command has no function", a.Name)
	}
	return nil
}

// MustBuild is Build for static declarations; it panics on error.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
