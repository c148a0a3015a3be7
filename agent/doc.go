// Package agent implements the capability consumer: an Agent learns tasks by
// binding registered modules to them, memorizes ephemeral short-term modules,
// gates network-backed and code-executing modules behind permission flags and
// manages a tree of sub-agents. Each learned task is exposed through an
// Actor, a per-(agent, task) capability table that keeps one binding's
// operator hooks from ever leaking into another.
package agent
