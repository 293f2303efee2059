package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

const (
	PromptStrict    = "strict"
	PromptAugmented = "augmented"
)

const strictTemplate = `Answer the question using only the context below.

Context:
{{.context}}

Question:
{{.question}}
`

const augmentedTemplate = `If helpful, you may add general knowledge or reasonable inferences,
but clearly separate them from the context.

Context:
{{.context}}

Question:
{{.question}}
`

// NewPrompt returns the template for name, with "context" and "question" inputs
func NewPrompt(name string) (prompts.PromptTemplate, error) {
	var tmpl string
	switch name {
	case PromptStrict:
		tmpl = strictTemplate
	case PromptAugmented, "":
		tmpl = augmentedTemplate
	default:
		return prompts.PromptTemplate{}, fmt.Errorf("unknown prompt %q", name)
	}
	return prompts.NewPromptTemplate(tmpl, []string{"context", "question"}), nil
}
