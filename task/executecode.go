package task

import "github.com/DosakuNet/dosaku/core"

// ExecutionResult is the outcome of running a piece of code locally.
type ExecutionResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// ExecuteCode is the interface for running caller-supplied code on the local
// machine. Modules implementing it require the executors permission.
var ExecuteCode = core.Task{
	Name: "ExecuteCode",
	Doc:  "Run caller-supplied code locally and capture its output.",
	Actions: []core.ActionSpec{
		{
			Name: "execute",
			Doc:  "Run code (args: code string) and return a task.ExecutionResult.",
		},
		{
			Name: core.CallOperator,
			Doc:  "Calling the task directly delegates to execute.",
		},
	},
}

// Builtins returns the built-in task declarations in a stable order.
func Builtins() []core.Task {
	return []core.Task{Chat, ZeroShotTextClassification, TextToImage, ExecuteCode}
}

// RegisterBuiltins registers every built-in task with the hub. Call it once
// per hub; a second call fails with a duplicate registration error.
func RegisterBuiltins(h *Hub) error {
	for _, t := range Builtins() {
		if err := h.RegisterTask(t); err != nil {
			return err
		}
	}
	return nil
}
