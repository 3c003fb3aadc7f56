// Package ir is the in-memory timeline model shared by the parser, writer,
// diff engine and export adapters.
//
// ir imports only rational and xmltree. Parser, writer, diff and export
// depend on ir and never on each other, so the exactness and referential
// integrity rules are enforced here, once.
//
// Key design constraints:
//   - All time is rational.TimeValue; no float appears in model logic
//   - Unknown attributes and elements ride along in an Opaque bag on every entity
//   - Clip IDs ("c1", "g2", ...) are session identities assigned in document
//     order; they are never written to the document
//   - Validate is the single statement of the structural invariants; every
//     writer commit and every parse ends with it
package ir
