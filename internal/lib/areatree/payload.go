package areatree

import (
	"fmt"
	"slices"
	"strings"
)

// Data is a single-value payload. Merging keeps the latest value.
type Data[T any] struct {
	Value T
	set   bool
}

// NewData creates a payload holding value
func NewData[T any](value T) *Data[T] {
	return &Data[T]{Value: value, set: true}
}

// Merge overwrites the value with the incoming one
func (d *Data[T]) Merge(incoming Payload) {
	other, ok := incoming.(*Data[T])
	if !ok || !other.set {
		return
	}
	d.Value = other.Value
	d.set = true
}

func (d *Data[T]) String() string {
	if !d.set {
		return ""
	}
	return fmt.Sprint(d.Value)
}

// Clone returns an independent copy
func (d *Data[T]) Clone() Payload {
	c := *d
	return &c
}

// Array is a deduplicated list payload. Merging appends values not yet present.
type Array[T comparable] struct {
	Values []T
}

// NewArray creates a payload holding the distinct values
func NewArray[T comparable](values ...T) *Array[T] {
	a := &Array[T]{}
	for _, v := range values {
		a.add(v)
	}
	return a
}

func (a *Array[T]) add(v T) {
	if !slices.Contains(a.Values, v) {
		a.Values = append(a.Values, v)
	}
}

// Merge appends incoming values that are not already present
func (a *Array[T]) Merge(incoming Payload) {
	other, ok := incoming.(*Array[T])
	if !ok {
		return
	}
	for _, v := range other.Values {
		a.add(v)
	}
}

func (a *Array[T]) String() string {
	parts := make([]string, 0, len(a.Values))
	for _, v := range a.Values {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, ", ")
}

// Clone returns an independent copy
func (a *Array[T]) Clone() Payload {
	return &Array[T]{Values: slices.Clone(a.Values)}
}

// AreaTreeWithData is a tree whose nodes carry a single value
type AreaTreeWithData[T any] struct {
	*AreaTree
}

// NewAreaTreeWithData creates a value-carrying node
func NewAreaTreeWithData[T any](name string, value T) AreaTreeWithData[T] {
	t := NewAreaTree(name)
	t.payload = NewData(value)
	return AreaTreeWithData[T]{AreaTree: t}
}

// Value returns the value stored on the root node
func (t AreaTreeWithData[T]) Value() (T, bool) {
	return DataOf[T](t.AreaTree)
}

// AreaTreeWithArray is a tree whose nodes carry a deduplicated list
type AreaTreeWithArray[T comparable] struct {
	*AreaTree
}

// NewAreaTreeWithArray creates a list-carrying node
func NewAreaTreeWithArray[T comparable](name string, values ...T) AreaTreeWithArray[T] {
	t := NewAreaTree(name)
	t.payload = NewArray(values...)
	return AreaTreeWithArray[T]{AreaTree: t}
}

// Values returns the list stored on the root node
func (t AreaTreeWithArray[T]) Values() []T {
	return ArrayOf[T](t.AreaTree)
}

// FromAreaTree deep-copies a plain tree, stamping a fresh payload from
// stamp onto every node
func FromAreaTree(tree *AreaTree, stamp func() Payload) *AreaTree {
	return tree.cloneWith(stamp)
}

// FromAreaTreeWithData deep-copies tree, putting value on every node
func FromAreaTreeWithData[T any](tree *AreaTree, value T) AreaTreeWithData[T] {
	return AreaTreeWithData[T]{AreaTree: FromAreaTree(tree, func() Payload { return NewData(value) })}
}

// FromAreaTreeWithArray deep-copies tree, putting [value] on every node
func FromAreaTreeWithArray[T comparable](tree *AreaTree, value T) AreaTreeWithArray[T] {
	return AreaTreeWithArray[T]{AreaTree: FromAreaTree(tree, func() Payload { return NewArray(value) })}
}

// DataOf returns the single value on a node
func DataOf[T any](t *AreaTree) (T, bool) {
	var zero T
	d, ok := t.payload.(*Data[T])
	if !ok || !d.set {
		return zero, false
	}
	return d.Value, true
}

// ArrayOf returns the list on a node
func ArrayOf[T comparable](t *AreaTree) []T {
	a, ok := t.payload.(*Array[T])
	if !ok {
		return nil
	}
	return slices.Clone(a.Values)
}
