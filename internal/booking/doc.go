// Package booking contains the pure decision core of the room booking
// service: the weekly-policy evaluator, the same-date overlap detector, and
// the workflow that sequences them.
//
// Every function in this package is a side-effect-free computation over an
// explicit input snapshot. The package performs no I/O, owns no persistent
// state, and never logs; callers receive machine-readable verdicts and decide
// how to present or persist them. The conflict check in particular is an
// advisory warning computed from the snapshot the caller supplies; serializing
// concurrent submissions is the persistence layer's responsibility.
package booking
