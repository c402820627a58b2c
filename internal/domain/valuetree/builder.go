package valuetree

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// Builder walks a manifest together with one object and produces a Tree.
// A Builder holds no per-run state and may be shared.
type Builder struct {
	policy   values.AccessorErrorPolicy
	maxDepth int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithAccessorErrorPolicy sets the run-level policy used when a node does
// not declare its own.
func WithAccessorErrorPolicy(p values.AccessorErrorPolicy) BuilderOption {
	return func(b *Builder) {
		b.policy = p
	}
}

// WithMaxDepth limits tree depth; 0 means unlimited.
func WithMaxDepth(depth int) BuilderOption {
	return func(b *Builder) {
		b.maxDepth = depth
	}
}

// NewBuilder creates a builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the value tree for object.
func (b *Builder) Build(root *manifest.Node, object any) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("manifest root is nil")
	}
	t := &Tree{}
	if err := b.addNode(t, root, NoParent, values.Successful(object), -1, "$", 0); err != nil {
		return nil, err
	}
	return t, nil
}

// addNode appends the node for decl and, when its value was read and is
// non-nil, recurses into its children.
func (b *Builder) addNode(
	t *Tree,
	decl *manifest.Node,
	parent NodeID,
	resp *values.ValueResponse,
	itemIndex int,
	path string,
	depth int,
) error {
	eff := decl.Effective()
	node := Node{
		Manifest:  decl,
		Effective: eff,
		Parent:    parent,
		Response:  resp,
		ItemIndex: itemIndex,
		Path:      path,
		Type:      firstNonEmpty(decl.Type, eff.Type),
		Rules:     append([]*manifest.Rule(nil), eff.Rules...),
	}

	value := resp.Value()
	readable := resp.IsSuccessful() && !isNil(value)
	children := eff.Children

	if readable {
		node.Identity = identify(decl, eff, value)
		for _, branch := range eff.Branches {
			if !branch.Matches(value) {
				continue
			}
			if branch.Type != "" {
				node.Type = branch.Type
			}
			node.Rules = append(node.Rules, branch.Rules...)
			children = append(append([]*manifest.Node(nil), children...), branch.Children...)
		}
	}

	id := t.add(node)
	if !readable || len(children) == 0 {
		return nil
	}
	if b.maxDepth > 0 && depth >= b.maxDepth {
		return fmt.Errorf("%w: %d levels at %s", ErrMaxDepthExceeded, b.maxDepth, path)
	}

	for _, child := range children {
		if err := b.addChild(t, child, id, value, path, depth); err != nil {
			return err
		}
	}
	return nil
}

// addChild reads child's value from parentValue and adds the resulting node
// or, for collection children, one node per item.
func (b *Builder) addChild(t *Tree, child *manifest.Node, parent NodeID, parentValue any, parentPath string, depth int) error {
	path := parentPath + "." + child.Label()

	value, err := read(child.Accessor, parentValue)
	if err != nil {
		switch child.AccessorErrorPolicy.Or(b.policy).Or(values.DefaultAccessorErrorPolicy) {
		case values.PolicyIgnore:
			return b.addNode(t, child, parent, values.Ignored(), -1, path, depth+1)
		case values.PolicyPropagate:
			return &AccessError{NodeID: child.ID, Path: path, Err: err}
		default:
			return b.addNode(t, child, parent, values.Errored(err), -1, path, depth+1)
		}
	}

	if !child.EachItem {
		return b.addNode(t, child, parent, values.Successful(value), -1, path, depth+1)
	}

	items, ok := enumerate(value)
	if !ok {
		return &NotEnumerableError{NodeID: child.ID, Path: path, Type: fmt.Sprintf("%T", value)}
	}
	for i, item := range items {
		itemPath := path + "[" + strconv.Itoa(i) + "]"
		if err := b.addNode(t, child, parent, values.Successful(item), i, itemPath, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// read invokes an accessor, converting a panic into an error.
func read(accessor manifest.Accessor, parent any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("accessor panicked: %v", r)
		}
	}()
	return accessor(parent)
}

// enumerate returns the items of a slice or array. A nil value has no items.
func enumerate(value any) ([]any, bool) {
	if value == nil {
		return nil, true
	}
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		return enumerate(rv.Elem().Interface())
	default:
		return nil, false
	}
}

// isNil reports whether value is nil or a typed nil reference.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func identify(decl, eff *manifest.Node, value any) any {
	switch {
	case decl.Identity != nil:
		return decl.Identity(value)
	case eff.Identity != nil:
		return eff.Identity(value)
	default:
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
