// Package mcpserver exposes the operation registry as Model Context
// Protocol tools.
//
// Every registry operation becomes one tool whose input schema is generated
// from the operation's parameters plus a required "path" naming the source
// document. Tool calls hold no state between them: each one parses, edits
// and writes on its own through an ops.Runner.
//
// Every path a tool call names passes through a PathPolicy before it is
// opened or written: extension whitelist, ".." rejection, symlink
// rejection, a size ceiling and, when configured, allowed roots.
//
// The server runs over stdio (ServeStdio) or streamable HTTP behind a chi
// router that also answers /healthz (NewRouter, ListenAndServe).
package mcpserver
