package task

import "github.com/DosakuNet/dosaku/core"

// TextToImage is the interface for generating an image from a text prompt.
var TextToImage = core.Task{
	Name: "TextToImage",
	Doc:  "Generate an image from a text prompt.",
	Actions: []core.ActionSpec{
		{
			Name: "text_to_image",
			Doc:  "Generate an image (args: prompt string) and return the PNG bytes.",
		},
		{
			Name: core.CallOperator,
			Doc:  "Calling the task directly delegates to text_to_image.",
		},
	},
}
