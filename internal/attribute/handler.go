package attribute

import "fmt"

// Handler is the write behaviour of an attribute: either a SingleCommand or
// a GroupCommand. The set is closed; the registry switches on the concrete
// type.
type Handler interface {
	isHandler()
}

// SingleCommand issues one hardware call with the written value.
type SingleCommand struct {
	Fn func(v any) error
}

// GroupCommand re-derives one composite hardware call from the latest
// staged value of every member of Group. It fires on every member write.
type GroupCommand struct {
	Group string
	Fn    func(v Values) error
}

func (SingleCommand) isHandler() {}
func (GroupCommand) isHandler()  {}

// IntCommand adapts a typed int call to a SingleCommand.
func IntCommand(fn func(int) error) SingleCommand {
	return SingleCommand{Fn: func(v any) error { return fn(v.(int)) }}
}

// FloatCommand adapts a typed float call to a SingleCommand.
func FloatCommand(fn func(float64) error) SingleCommand {
	return SingleCommand{Fn: func(v any) error { return fn(v.(float64)) }}
}

// StringCommand adapts a typed string call to a SingleCommand.
func StringCommand(fn func(string) error) SingleCommand {
	return SingleCommand{Fn: func(v any) error { return fn(v.(string)) }}
}

// Values is the staged state of a commit group, keyed by attribute name.
type Values map[string]any

// Int returns the staged int value of name. It panics if name is not an
// int member of the group.
func (v Values) Int(name string) int {
	n, ok := v[name].(int)
	if !ok {
		panic(fmt.Sprintf("attribute: group value %s is %T, not int", name, v[name]))
	}
	return n
}

// Float returns the staged float value of name.
func (v Values) Float(name string) float64 {
	f, ok := v[name].(float64)
	if !ok {
		panic(fmt.Sprintf("attribute: group value %s is %T, not float", name, v[name]))
	}
	return f
}
