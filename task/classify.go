package task

import "github.com/DosakuNet/dosaku/core"

// Classification is the result of a zero-shot classification: the winning
// label plus all candidate labels with their scores, sorted best first.
type Classification struct {
	Classification string    `json:"classification"`
	Labels         []string  `json:"labels"`
	Scores         []float64 `json:"scores"`
}

// ZeroShotTextClassification is the interface for classifying text against an
// arbitrary, caller-supplied label set.
var ZeroShotTextClassification = core.Task{
	Name: "ZeroShotTextClassification",
	Doc:  "Classify text against an arbitrary set of candidate labels.",
	Actions: []core.ActionSpec{
		{
			Name: "classify",
			Doc: "Classify text (args: text string, labels []string) and return a " +
				"task.Classification with labels and scores sorted best first.",
		},
		{
			Name: core.CallOperator,
			Doc:  "Calling the task directly delegates to classify.",
		},
	},
}
