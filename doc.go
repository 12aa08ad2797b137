// Package prender renders JSX/TSX components to complete HTML documents
// inside an embedded JavaScript engine.
//
// A Renderer owns one engine runtime and context. In development mode it
// compiles components from source per request, caching by file mtime, and
// turns script errors into in-page error documents. In production mode it
// evaluates a prebuilt server bundle once and serves hashed client assets
// from the build manifest. Pool runs several renderers for concurrent
// hosts, and ReloadHub plus Watcher give development documents live reload.
package prender
