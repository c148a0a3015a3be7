// Package core defines the shared contracts of the Dosaku framework: task
// declarations, module manifests and instances, short-term modules, streaming
// responses, conversation contexts and the error types used across the
// registries and agents. Every other package imports it.
package core
