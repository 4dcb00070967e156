package attribute

import (
	"fmt"
	"slices"
	"strings"

	"github.com/banshee-data/rtc6-controller/internal/monitoring"
)

type entry struct {
	Attribute
	value any
}

// Registry is the flat, named table of attributes and commands built by a
// Builder. It is not safe for concurrent use; the host serializes writes.
type Registry struct {
	attrs    map[string]*entry
	order    []string
	commands map[string]Command
	cmdOrder []string
	groups   map[string][]string
	metrics  *monitoring.Metrics
}

// Attributes returns the declarations in registration order.
func (r *Registry) Attributes() []Attribute {
	out := make([]Attribute, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.attrs[name].Attribute)
	}
	return out
}

// Commands returns the command declarations in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.cmdOrder))
	for _, name := range r.cmdOrder {
		out = append(out, r.commands[name])
	}
	return out
}

// Lookup returns the declaration of name.
func (r *Registry) Lookup(name string) (Attribute, bool) {
	e, ok := r.attrs[name]
	if !ok {
		return Attribute{}, false
	}
	return e.Attribute, true
}

// Group returns the member names of a commit group in registration order.
func (r *Registry) Group(group string) []string {
	return slices.Clone(r.groups[group])
}

func (r *Registry) reject(name string, format string, args ...any) error {
	if r.metrics != nil {
		r.metrics.AttributeRejections.WithLabelValues(name).Inc()
	}
	return fmt.Errorf("%w: %s: %s", ErrValidation, name, fmt.Sprintf(format, args...))
}

// Write validates v, stages it and runs the attribute's handler. Nothing
// reaches the hardware if validation fails. If the handler fails the
// previous staged value is restored so the group state keeps matching what
// the card accepted.
func (r *Registry) Write(name string, v any) error {
	e, ok := r.attrs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	if !e.Mode.writable() {
		return r.reject(name, "attribute is read-only")
	}
	value, err := coerce(e.Kind, v)
	if err != nil {
		return r.reject(name, "%v", err)
	}
	if len(e.Allowed) > 0 && !slices.Contains(e.Allowed, value.(string)) {
		return r.reject(name, "%q not in [%s]", value, strings.Join(e.Allowed, ", "))
	}

	previous := e.value
	e.value = value
	if err := r.dispatch(e); err != nil {
		e.value = previous
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteString parses s according to the attribute's kind and writes it.
func (r *Registry) WriteString(name, s string) error {
	e, ok := r.attrs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	v, err := parse(e.Kind, s)
	if err != nil {
		return r.reject(name, "cannot parse %q as %s", s, e.Kind)
	}
	return r.Write(name, v)
}

func (r *Registry) dispatch(e *entry) error {
	switch h := e.Handler.(type) {
	case nil:
		return nil
	case SingleCommand:
		return h.Fn(e.value)
	case GroupCommand:
		values := make(Values, len(r.groups[h.Group]))
		for _, member := range r.groups[h.Group] {
			values[member] = r.attrs[member].value
		}
		return h.Fn(values)
	default:
		return fmt.Errorf("attribute %s: unsupported handler %T", e.Name, h)
	}
}

// Read returns the current value of a readable attribute: the Read func's
// result if one is declared, otherwise the staged value.
func (r *Registry) Read(name string) (any, error) {
	e, ok := r.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	if !e.Mode.readable() {
		return nil, fmt.Errorf("%w: %s", ErrNotReadable, name)
	}
	if e.Read != nil {
		return e.Read()
	}
	return e.value, nil
}

// Staged returns the last staged value of any attribute, including
// write-only ones. Commands use it to collect their parameters.
func (r *Registry) Staged(name string) (any, bool) {
	e, ok := r.attrs[name]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Run invokes a command.
func (r *Registry) Run(name string) error {
	c, ok := r.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	if err := c.Fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Snapshot reads every readable attribute. Read failures are reported as
// their error text so one unreachable value does not hide the rest.
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any, len(r.order))
	for _, name := range r.order {
		if !r.attrs[name].Mode.readable() {
			continue
		}
		v, err := r.Read(name)
		if err != nil {
			out[name] = "error: " + err.Error()
			continue
		}
		out[name] = v
	}
	return out
}
