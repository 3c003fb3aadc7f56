// Package rational provides exact fractional time for timeline documents.
//
// rational imports nothing internal. It is the leaf every other package builds on.
//
// Design constraints:
//   - Arithmetic never converts to floating point. Float64 exists for display.
//   - Values keep the denominator they were written with ("1001/30000s" stays
//     "1001/30000s" after parse and render) so serialized documents diff cleanly.
//     Simplify is explicit.
//   - The zero value of TimeValue is 0/1 and is ready to use.
//   - Timecode conversion counts frames, never seconds, so every rate expressible
//     as a rational frames-per-second value round-trips without drift.
package rational
