// Package kernel holds the shared value objects of the dispatch domain:
// UUID identifiers, GeoPoint coordinates and the immutable route Path.
//
// All of them are built through constructors and reject their zero value
// in Validate, so aggregates can embed them without re-checking ranges.
package kernel
