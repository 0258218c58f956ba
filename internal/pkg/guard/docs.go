// Package guard holds ConstructorGuard, the marker embedded by value objects and
// aggregates to tell a properly constructed value from a zero value.
package guard
