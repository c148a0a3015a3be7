// Package module implements the module manager: the registry of module
// manifests and the permission-gated, cached loader that turns a manifest
// into a live instance. Agents never instantiate modules directly; the
// manager owns the only long-lived references to loaded instances.
//
// Concrete built-in modules live in the subpackages (echo, openaichat,
// claudechat, zeroshot, openaiimage, shellexec), each exposing a Manifest()
// for explicit registration.
package module
