// Package cmd provides the xdevkit command-line interface.
//
// # Available Commands
//
//   - compile: clean production build of scripts, styles and pages
//   - watch: rebuild changed files for development, optionally with live reload
//   - init: create a project from the published sample archive
//   - pages: list the pages defined in the page config
//   - version: print build information
//
// # Configuration
//
// Configuration is resolved by Viper from several sources, highest
// precedence first:
//
//  1. Command-line flags (--js, --out, --minify, ...)
//  2. XDEVKIT_ environment variables, e.g. XDEVKIT_PATHS_OUT or
//     XDEVKIT_BUILD_MINIFY; a .env file in the project directory is loaded
//     first and never overrides variables already set
//  3. The config file: --config, then XDEVKIT_CONFIG_FILE, then .xdevkit.yml
//  4. Built-in defaults for the conventional ./custom/ layout
//
// # Command Examples
//
//	xdevkit init mysite
//	xdevkit watch --once --livereload-port 35729
//	xdevkit compile --minify
//	xdevkit pages --format json
//
// The historical invocation `xdevkit <projectDir> <command>` is accepted and
// behaves like `xdevkit --chdir <projectDir> <command>`.
package cmd
