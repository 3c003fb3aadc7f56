// Package writer applies edits to a parsed project and serializes it back
// to FCPXML.
//
// Every edit runs against a deep copy of the project. The copy is validated
// with ir.Project.Validate and only then replaces the editor's project, so a
// failed edit leaves nothing half applied. The index is rebuilt after every
// commit.
//
// Markers are built in one place, NewMarker. Manual markers, batch markers,
// silence marks and imported cues all go through it.
package writer
