// Package core provides the widget and element framework: the element arena,
// lifecycle and dirty tracking, and the reconciler that diffs widget
// configuration into the element tree.
package core

import (
	"github.com/go-flint/flint/pkg/layout"
)

// Widget is an immutable description of part of the UI. Widgets are
// lightweight configuration values that can be created freely; the
// reconciler matches them against existing elements by concrete type and
// key.
type Widget interface {
	CreateElement() Element
	// Key returns the widget's optional stable identity. Widgets with equal
	// non-nil keys may be reordered across rebuilds without losing element
	// state.
	Key() any
}

// BuildContext carries the element position during build.
type BuildContext interface {
	// Widget returns the widget currently configured at this position.
	Widget() Widget
	// FindAncestor walks up the element tree to the first element matching
	// the predicate.
	FindAncestor(predicate func(Element) bool) Element
}

// CompositeWidget builds a child widget. It owns no render object; its
// element delegates layout and paint to the built subtree.
type CompositeWidget interface {
	Widget
	Build(ctx BuildContext) Widget
}

// Arity is the number of children a render widget accepts.
type Arity int

const (
	// ArityLeaf accepts no children.
	ArityLeaf Arity = iota
	// AritySingle accepts at most one child.
	AritySingle
	// ArityMulti accepts an ordered list of children.
	ArityMulti
	// ArityVariable accepts a list whose realized subset varies per layout
	// pass (virtualized content).
	ArityVariable
)

func (a Arity) String() string {
	switch a {
	case ArityLeaf:
		return "leaf"
	case AritySingle:
		return "single"
	case ArityMulti:
		return "multi"
	case ArityVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Protocol is the layout contract a render widget's render object follows.
type Protocol int

const (
	// ProtocolBox is fixed-size constraint/size layout.
	ProtocolBox Protocol = iota
	// ProtocolSliver is scroll-aware partial layout.
	ProtocolSliver
)

func (p Protocol) String() string {
	if p == ProtocolSliver {
		return "sliver"
	}
	return "box"
}

// RenderWidget creates and configures a render object.
type RenderWidget interface {
	Widget
	Arity() Arity
	Protocol() Protocol
	CreateRenderObject(ctx BuildContext) layout.RenderObject
	UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject)
}

// SingleChildWidget is implemented by widgets configured with one child.
type SingleChildWidget interface {
	ChildWidget() Widget
}

// MultiChildWidget is implemented by widgets configured with a child list.
type MultiChildWidget interface {
	ChildWidgets() []Widget
}

// CompositeBase provides default CreateElement and Key implementations for
// composite widgets. Embed it in your widget struct to satisfy the Widget
// interface without boilerplate:
//
//	type Greeting struct {
//	    core.CompositeBase
//	    Name string
//	}
//
//	func (g Greeting) Build(ctx core.BuildContext) core.Widget {
//	    return widgets.ColoredBox{Color: 0xFF00FF00}
//	}
type CompositeBase struct{}

// CreateElement returns a new CompositeElement.
func (CompositeBase) CreateElement() Element { return NewCompositeElement() }

// Key returns nil (no key).
func (CompositeBase) Key() any { return nil }

// RenderBase provides default Key and Protocol implementations for box
// render widgets.
type RenderBase struct{}

// Key returns nil (no key).
func (RenderBase) Key() any { return nil }

// Protocol returns ProtocolBox.
func (RenderBase) Protocol() Protocol { return ProtocolBox }

// childWidgetsOf extracts the configured child widgets for a render widget
// according to its declared arity.
func childWidgetsOf(w RenderWidget) []Widget {
	switch w.Arity() {
	case ArityLeaf:
		return nil
	case AritySingle:
		if sc, ok := w.(SingleChildWidget); ok {
			if child := sc.ChildWidget(); child != nil {
				return []Widget{child}
			}
		}
		return nil
	default:
		if mc, ok := w.(MultiChildWidget); ok {
			return mc.ChildWidgets()
		}
		return nil
	}
}
