// Package partner implements the Partner aggregate: a field partner who logs in,
// claims jobs and drives them to completion. Document review happens outside
// the service; only its outcome, the verified flag, is recorded here.
package partner
