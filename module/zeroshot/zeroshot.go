// Package zeroshot provides KeywordClassifier, a zero-shot text classifier
// scoring candidate labels by lexical overlap with the input. It keeps the
// Classification result shape of service-backed classifiers so both can
// register against the same task.
package zeroshot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/task"
)

// Name is the registered module name.
const Name = "KeywordClassifier"

// Classifier implements ZeroShotTextClassification with no permissions and no
// network access.
type Classifier struct{}

// New constructs the module. No configuration is consumed.
func New(core.Config) (core.Module, error) {
	return &Classifier{}, nil
}

// Manifest declares KeywordClassifier to a module manager.
func Manifest() core.Manifest {
	return core.Manifest{
		Name:    Name,
		Doc:     "Zero-shot classifier scoring labels by lexical overlap.",
		Tasks:   []string{task.ZeroShotTextClassification.Name},
		Actions: []string{"classify", core.CallOperator},
		New:     New,
	}
}

// Name implements core.Module.
func (c *Classifier) Name() string { return Name }

// Actions implements core.Module.
func (c *Classifier) Actions() map[string]core.ActionFunc {
	return map[string]core.ActionFunc{
		"classify":        c.classify,
		core.CallOperator: c.classify,
	}
}

func (c *Classifier) classify(_ context.Context, args map[string]any) (any, error) {
	text, _ := args["text"].(string)
	labels, err := labelList(args["labels"])
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("classify requires at least one label")
	}

	tokens := tokenize(text)
	scores := make([]float64, len(labels))
	var total float64
	for i, label := range labels {
		scores[i] = overlap(tokens, tokenize(label))
		total += scores[i]
	}
	if total > 0 {
		for i := range scores {
			scores[i] /= total
		}
	} else {
		// No signal: uniform distribution keeps the contract deterministic.
		for i := range scores {
			scores[i] = 1 / float64(len(labels))
		}
	}

	idx := make([]int, len(labels))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	result := task.Classification{
		Classification: labels[idx[0]],
		Labels:         make([]string, len(labels)),
		Scores:         make([]float64, len(labels)),
	}
	for rank, i := range idx {
		result.Labels[rank] = labels[i]
		result.Scores[rank] = scores[i]
	}
	return result, nil
}

func labelList(v any) ([]string, error) {
	switch l := v.(type) {
	case []string:
		return l, nil
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("label %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("labels must be a string list, got %T", v)
	}
}

func tokenize(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func overlap(text, label map[string]bool) float64 {
	var n float64
	for tok := range label {
		if text[tok] {
			n++
		}
	}
	return n
}
