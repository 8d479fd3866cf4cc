// Package globe is a small terminal rendering engine for planetary imagery.
//
// A Viewer owns an ordered stack of imagery layers, a camera, and an
// asynchronous tile pipeline. Render composites the visible layers into a
// frame of half-block characters, two pixels per terminal cell.
//
// Component layout:
//
//	viewer.go  : Viewer construction, options, lifecycle
//	imagery.go : imagery providers and the layer stack
//	template.go: tile URL template expansion
//	camera.go  : camera position and animated flights
//	tiles.go   : in-memory tile cache and async loading
//	render.go  : projection, compositing, ANSI output
package globe
