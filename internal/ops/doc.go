// Package ops is the dispatch layer between the outer surfaces (CLI, MCP
// server, scenario harness) and the timeline engine.
//
// Every operation is registered once in a Registry under a stable name and
// falls into one category:
//
//   - read: inspect a parsed document, never writes
//   - edit: apply one writer.Editor edit and save a new document
//   - compare: diff two documents
//   - export: convert a document to another interchange format
//
// Arguments arrive as an untyped Args map, decoded from JSON or flags, and
// are checked against the operation's parameter list before it runs. A
// Runner ties the pieces together: it reads the source, runs the
// operation, writes the output next to the source and records the edit in
// a Journal.
package ops
