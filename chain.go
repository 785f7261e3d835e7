package descriptor

import "github.com/goliatone/go-descriptor/layering"

// Chain stacks layers on one property of one target. Layers are kept oldest
// first; each new layer links to the current top and is installed on the
// target immediately.
type Chain struct {
	target   Definer
	key      string
	defaults Attributes
	opts     []Option
	layers   []*Layer
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithChainDefaults sets attributes applied under every pushed layer's own.
func WithChainDefaults(defaults Attributes) ChainOption {
	return func(c *Chain) {
		c.defaults = defaults
	}
}

// WithChainOptions sets layer options applied before each Push's own options.
func WithChainOptions(opts ...Option) ChainOption {
	return func(c *Chain) {
		c.opts = append(c.opts, opts...)
	}
}

// NewChain prepares a chain for key on target.
func NewChain(target Definer, key string, opts ...ChainOption) *Chain {
	c := &Chain{target: target, key: key}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Key returns the intercepted property key.
func (c *Chain) Key() string { return c.key }

// Push builds a layer from attrs merged over the chain defaults, links it to
// the current top (or the target's existing slot), records its position as
// Index when none is given, and installs it.
func (c *Chain) Push(attrs Attributes, opts ...Option) (*Layer, error) {
	index := len(c.layers)
	if c.target == nil {
		return nil, wrapChainError(c.key, index, ErrNilTarget)
	}
	if c.key == "" {
		return nil, wrapChainError(c.key, index, ErrKeyRequired)
	}

	merged := layering.Merge(attrs, c.defaults)
	if merged.Index == nil {
		merged.Index = &index
	}
	if present(merged.Previous) == nil {
		if top := c.Top(); top != nil {
			merged.Previous = top
		}
	}

	layerOpts := append(append([]Option(nil), c.opts...), opts...)
	layer := NewFromAttributes(c.target, c.key, merged, layerOpts...)
	if err := checkAcyclic(layer); err != nil {
		return nil, wrapChainError(c.key, index, err)
	}
	if err := Install(c.target, layer); err != nil {
		return nil, wrapChainError(c.key, index, err)
	}
	c.layers = append(c.layers, layer)
	return layer, nil
}

// Top returns the most recently pushed layer, or nil.
func (c *Chain) Top() *Layer {
	if c == nil || len(c.layers) == 0 {
		return nil
	}
	return c.layers[len(c.layers)-1]
}

// Layers returns the pushed layers oldest first. The slice is a copy.
func (c *Chain) Layers() []*Layer {
	if c == nil || len(c.layers) == 0 {
		return nil
	}
	out := make([]*Layer, len(c.layers))
	copy(out, c.layers)
	return out
}

// Len returns the number of pushed layers.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.layers)
}

// Get reads the property through the top of the chain. A chain without a
// target reads nil.
func (c *Chain) Get() any {
	if c == nil || c.target == nil {
		return nil
	}
	if top := c.Top(); top != nil {
		return top.Get(c.target)
	}
	if d, ok := c.target.OwnPropertyDescriptor(c.key); ok && present(d) != nil {
		return d.read(c.target)
	}
	value, _ := c.target.Field(c.key)
	return value
}

// Set writes the property through the top of the chain. A chain without a
// target ignores the write.
func (c *Chain) Set(value any) {
	if c == nil || c.target == nil {
		return
	}
	if top := c.Top(); top != nil {
		top.Set(c.target, value)
		return
	}
	if d, ok := c.target.OwnPropertyDescriptor(c.key); ok && present(d) != nil {
		d.write(c.target, value)
		return
	}
	c.target.SetField(c.key, value)
}

// Trace reports each link's contribution, top first.
func (c *Chain) Trace() Trace {
	if c == nil || c.target == nil {
		key := ""
		if c != nil {
			key = c.key
		}
		return Trace{Key: key, Layers: []Provenance{}}
	}
	var head Descriptor
	if top := c.Top(); top != nil {
		head = top
	} else if d, ok := c.target.OwnPropertyDescriptor(c.key); ok {
		head = d
	}
	return TraceOf(c.target, c.key, head)
}

// Depth counts the links reachable from d, d included.
func Depth(d Descriptor) int {
	depth := 0
	seen := map[*Layer]struct{}{}
	for cursor := present(d); cursor != nil; {
		layer, ok := cursor.(*Layer)
		if !ok {
			return depth + 1
		}
		if _, dup := seen[layer]; dup {
			break
		}
		seen[layer] = struct{}{}
		depth++
		cursor = present(layer.previous)
	}
	return depth
}

func checkAcyclic(head *Layer) error {
	seen := map[*Layer]struct{}{}
	for cursor := present(Descriptor(head)); cursor != nil; {
		layer, ok := cursor.(*Layer)
		if !ok {
			return nil
		}
		if _, dup := seen[layer]; dup {
			return ErrCyclicChain
		}
		seen[layer] = struct{}{}
		cursor = present(layer.previous)
	}
	return nil
}
