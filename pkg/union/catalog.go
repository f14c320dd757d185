package union

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Catalog indexes union kinds by name. It is safe for concurrent use; kinds
// may be added while other goroutines decode.
type Catalog struct {
	kinds *xsync.MapOf[string, *Registry]
}

// NewCatalog returns a catalog holding registries.
func NewCatalog(registries ...*Registry) (*Catalog, error) {
	c := &Catalog{kinds: xsync.NewMapOf[string, *Registry]()}
	for _, r := range registries {
		if err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers r under its name. A name can be added once.
func (c *Catalog) Add(r *Registry) error {
	if r == nil {
		return fmt.Errorf("%w: nil registry", ErrInvalidVariant)
	}
	if _, loaded := c.kinds.LoadOrStore(r.name, r); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, r.name)
	}
	return nil
}

func (c *Catalog) Lookup(name string) (*Registry, bool) {
	return c.kinds.Load(name)
}

func (c *Catalog) Len() int { return c.kinds.Size() }

// Names returns the kind names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, c.kinds.Size())
	c.kinds.Range(func(name string, _ *Registry) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Decode decodes buf as a union of the named kind.
func (c *Catalog) Decode(kind string, buf []byte) (Value, error) {
	r, ok := c.kinds.Load(kind)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return r.Decode(buf)
}
