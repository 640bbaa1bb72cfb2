package registry

import "fmt"

// Kind is the kind of scene identity a key refers to
type Kind int

const (
	KindNode Kind = iota
	KindEdge
	KindArrowhead
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	case KindArrowhead:
		return "arrowhead"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ArrowheadSuffix is appended to an edge name to name its arrowhead object
const ArrowheadSuffix = "ah"

// Key is a stable identity across snapshots. Nodes, edges and arrowheads
// live in separate key spaces, so a node and an edge sharing a name never
// collide in the registry.
type Key struct {
	Kind Kind
	Name string
}

// NodeKey returns the key of the node with the given name
func NodeKey(name string) Key {
	return Key{Kind: KindNode, Name: name}
}

// EdgeKey returns the key of the edge with the given name
func EdgeKey(name string) Key {
	return Key{Kind: KindEdge, Name: name}
}

// ArrowheadKey returns the key of the arrowhead owned by the edge
func ArrowheadKey(edge string) Key {
	return Key{Kind: KindArrowhead, Name: edge}
}

// Parent returns the edge key an arrowhead depends on
func (k Key) Parent() (Key, bool) {
	if k.Kind != KindArrowhead {
		return Key{}, false
	}
	return EdgeKey(k.Name), true
}

// ObjectName is the scene object name for the key
func (k Key) ObjectName() string {
	if k.Kind == KindArrowhead {
		return k.Name + ArrowheadSuffix
	}
	return k.Name
}

func (k Key) String() string {
	return k.Kind.String() + ":" + k.Name
}
