package task

import "github.com/DosakuNet/dosaku/core"

// Chat is the interface for a generic conversational chatbot. Whether a chat
// history is kept, and whether streaming is supported, is up to the module.
var Chat = core.Task{
	Name: "Chat",
	Doc:  "Generic conversational chatbot.",
	Actions: []core.ActionSpec{
		{
			Name: "message",
			Doc: "Send a message (args: message string) and get a response. " +
				"Non-streaming modules return the reply as a string; modules loaded " +
				"with stream=true return a *core.Stream yielding the cumulative reply " +
				"so far on every element.",
		},
		{
			Name: core.CallOperator,
			Doc:  "Calling the task directly delegates to message with identical semantics.",
		},
	},
}
