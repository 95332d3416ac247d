// Package errors provides structured, coded error messages for ReplayView.
//
// Each error carries a unique code (e.g., "E201") that maps to a category,
// a short message, and a fix suggestion. Errors are created from the
// registry and enriched at the call site:
//
//	err := errors.New("E201").
//	    WithDetail("app/routes/index.js: permission denied").
//	    Wrap(ioErr)
//
//	fmt.Println(err.Format())
//
// # Categories
//
//   - config: project configuration and environment errors
//   - bundle: asset bundling and fingerprinting errors
//   - server: dev server and reload channel errors
//   - client: bootstrap and rendering errors
//   - deploy: production deployment errors
package errors
