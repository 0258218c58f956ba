// Package position defines the position sample exchanged between a feed and
// the live broadcast channel of a job.
package position
