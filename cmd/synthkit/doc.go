// Package main hosts the synthkit CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the library clients in
// pkg/: connectors, datasources and synthesizer jobs. It owns configuration
// resolution, logger setup and output rendering (tables, JSON, YAML) so the
// library packages stay free of terminal concerns.
package main
