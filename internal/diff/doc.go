// Package diff compares two timelines and reports what changed between them.
//
// Timelines parsed from different documents share no identity, so clips are
// matched by resource reference and name. When several clips share both, the
// pairing minimises the distance between timeline positions, breaking ties
// by document order, so identical inputs always produce the same change set.
package diff
