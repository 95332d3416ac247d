// Package bootstrap mounts the ReplayView single-page application and
// keeps it current during development.
//
// All inputs arrive through an explicit Config — the hosting page's
// initial state, the asset resolver, and the build-time flags are read
// once by the caller and handed in; the bootstrap never consults global
// state. An App moves from Uninitialized to Mounted via Initialize, which
// performs the first hydrating render, and stays Mounted while re-renders
// replace the tree in place.
//
// When a reload channel URL is configured and the desktop-packaged flag is
// off, the App subscribes to the dev server's rebuild notifications and
// re-renders with a freshly resolved route table whenever a route module
// changes. Error reporting, when an endpoint is configured, runs on a
// dedicated channel and can never block or break rendering.
package bootstrap
