// Package task implements the task hub: the process-wide catalog of abstract
// capability interfaces and the modules registered against them. It also
// declares the built-in tasks (Chat, ZeroShotTextClassification, TextToImage,
// ExecuteCode). Registration is always an explicit call; merely importing
// this package registers nothing.
package task
