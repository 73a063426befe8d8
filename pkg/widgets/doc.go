// Package widgets provides the built-in widget library: layout primitives
// such as Center, Padding and SizedBox, painting primitives such as
// ColoredBox, and scrolling containers backed by the sliver protocol.
//
// Widgets are immutable configuration values. Each render widget pairs with
// an unexported render object that carries the mutable layout and paint
// state.
package widgets
