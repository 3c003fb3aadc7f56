// Package parser turns FCPXML documents into the ir model.
//
// Input is untrusted. Size, depth and entity limits are enforced by
// xmltree before any element is interpreted, and they apply the same way to
// files, readers and in-memory bytes.
//
// The walk is single pass per level: resources are read once into the id
// table, each storyline is read once classifying clips, gaps, transitions
// and opaque items, and each clip's children are read once, classifying
// markers with ir.ClassifyMarker as they appear. Anything the model does
// not interpret lands in the owning entity's Opaque bag.
package parser
