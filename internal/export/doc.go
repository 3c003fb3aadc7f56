// Package export re-projects a parsed project for other editing tools.
//
// Simplify produces a narrower FCPXML project: compound clips are replaced by
// the part of their nested sequence they show, attributes some importers
// choke on are dropped and the declared version is lowered. The result is an
// ordinary *ir.Project, serialized by the writer like any other.
//
// Tracks and MarshalXMEML produce the track-based XMEML interchange format.
// The primary storyline becomes track 0 and every lane becomes its own
// track; times are written as frame counts and a time that does not fall on a
// frame boundary is an error rather than a rounded value.
package export
