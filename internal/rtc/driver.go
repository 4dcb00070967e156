package rtc

import (
	"fmt"
	"sort"
	"sync"
)

// Opener constructs a Card for a registered binding.
type Opener func() (Card, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Opener)
)

// Register makes a card binding available by name. It panics if the name is
// registered twice or opener is nil, mirroring database/sql.
func Register(name string, opener Opener) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if opener == nil {
		panic("rtc: Register opener is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("rtc: Register called twice for binding " + name)
	}
	drivers[name] = opener
}

// Drivers returns the sorted names of the registered bindings.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open constructs a card using the named binding.
func Open(name string) (Card, error) {
	driversMu.RLock()
	opener, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rtc: unknown binding %q (registered: %v)", name, Drivers())
	}
	return opener()
}

func init() {
	Register("sim", func() (Card, error) { return NewSimCard(), nil })
}
