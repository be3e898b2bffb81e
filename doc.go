// Package facet is a capture-and-render engine for command UIs: command
// bodies emit content through a single call, and the engine captures the
// ordered emission sequence, resolves it per channel, and routes it to
// per-command destinations across buffered, streaming, and background
// execution.
//
// The root package only re-exports the embedding surface. The engine
// lives in the subpackages:
//
//   - pkg/spec: command and parameter specifications
//   - pkg/output: the emission API used inside command bodies
//   - pkg/app: the embedding facade
//   - pkg/render/textchan, pkg/render/widgetchan: the two channels
//   - pkg/adapters/httpapi: the HTTP surface
package facet
