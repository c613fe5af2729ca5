// Package internal contains the implementation packages of the xdevkit CLI.
//
// # Package Organization
//
//   - config: project paths, tool names and options resolved through Viper
//   - pageconfig: the per-page template data file and its _common defaults
//   - toolchain: running external tools and capturing their results
//   - renderer: page template engines (the ejs CLI and html/template)
//   - htmlcheck: text fingerprints guarding HTML post-processing
//   - build: script, style and template builders and the build orchestrator
//   - watcher: filesystem watching with ordered rules and debouncing
//   - livereload: websocket reload notifications for development pages
//   - scaffold: creating a project from the sample archive
//   - errors, logging, validation, version: shared infrastructure
//
// # Inter-Package Communication
//
//   - cmd builds a config.Config and hands it to the build orchestrator
//   - builders run every external tool through a toolchain.Runner
//   - the orchestrator describes watch rules; watcher only matches and
//     dispatches
//   - successful watch rebuilds are broadcast by livereload when enabled
//
// # Testing Strategy
//
// Builders are tested against a toolchain.Recorder that stands in for the
// external tools. Property tests live behind the property build tag:
//
//	go test -tags property ./internal/...
package internal
