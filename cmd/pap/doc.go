// Package main hosts the pap CLI entrypoint and command graph.
//
// The Cobra command tree packs an image and its annotation into a container
// (pack), writes a container's payloads back to disk (unpack), prints a
// container summary (inspect), and scaffolds configuration (config). Settings
// are resolved once per invocation from the config file and persistent flags;
// all container work is delegated to the library package.
package main
