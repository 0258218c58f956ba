// Package services provides domain services that coordinate more than one
// aggregate in the dispatch domain.
//
// The package includes:
//   - ClaimArbitrator: decides whether a partner may bind a job at a given claim version
//
// Services are stateless; atomicity of the resulting write is the job of the
// application layer, which commits through a conditional update.
package services
