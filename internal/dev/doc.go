// Package dev implements the ReplayView development server.
//
// The server owns exactly one Bundler instance for its lifetime. A polling
// Watcher feeds file changes into the server's change loop, which coalesces
// bursts through a debounce window and triggers at most one rebuild at a
// time. Successful rebuilds are pushed to every connected browser tab over
// the reload WebSocket as the set of changed module identifiers plus the
// new build hash; failed builds are pushed as error notifications and the
// server keeps running.
//
// Compiled assets live in memory and are served under the configured public
// prefix with a permissive CORS header so a page hosted on another origin
// can load them.
package dev
