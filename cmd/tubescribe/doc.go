// Package main hosts the tubescribe CLI entrypoint and command graph.
//
// The root command takes one input (a URL, a media file, or a list file) and
// runs the batch pipeline over it, printing a per-item summary on stdout while
// logs go to stderr. Subcommands inspect run history, check external
// dependencies, and scaffold configuration.
//
// Keep this package lean: pipeline behaviour lives in the internal packages;
// commands here only resolve configuration, wire collaborators, and render.
package main
