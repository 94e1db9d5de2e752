package rag

import (
	"fmt"
	"strings"

	"docudive/internal/models"
	"docudive/internal/util"
)

const (
	ContextPlaceholder  = "{context}"
	QuestionPlaceholder = "{question}"
	ContextSeparator    = "\n\n---\n\n"
)

const DefaultTemplate = `
Answer the question based only on the following context:

{context}

---

Answer the question based on the above context: {question}
`

type Template struct {
	text string
}

// NewTemplate rejects templates missing either placeholder.
func NewTemplate(text string) (*Template, error) {
	var missing []string
	for _, ph := range []string{ContextPlaceholder, QuestionPlaceholder} {
		if !strings.Contains(text, ph) {
			missing = append(missing, ph)
		}
	}
	if len(missing) > 0 {
		return nil, util.WrapOp("prompt template", util.ErrConfiguration, fmt.Errorf("missing placeholder %s", strings.Join(missing, ", ")))
	}
	return &Template{text: text}, nil
}

func MustDefaultTemplate() *Template {
	t, err := NewTemplate(DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

// BuildContext joins chunk texts in rank order. Texts are used verbatim.
func BuildContext(results []models.QueryResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Chunk.Text)
	}
	return strings.Join(parts, ContextSeparator)
}

// Assemble fills both placeholders in one pass, so placeholder text inside a
// chunk or the question is not expanded again.
func (t *Template) Assemble(results []models.QueryResult, question string) string {
	r := strings.NewReplacer(ContextPlaceholder, BuildContext(results), QuestionPlaceholder, question)
	return r.Replace(t.text)
}
