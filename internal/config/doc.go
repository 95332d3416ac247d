// Package config loads ReplayView project configuration.
//
// Configuration comes from two places, merged in order:
//
//  1. replayview.json in the project root (found by walking up from the
//     working directory), with defaults applied for anything unset.
//  2. Environment variables (APP_HOST, FRONTEND_PORT), which override the
//     file. The dev server always binds FRONTEND_PORT+1 so it can sit next
//     to the application server; a missing or non-numeric FRONTEND_PORT
//     silently resolves to the default, never an error.
package config
