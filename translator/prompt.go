package translator

import (
	"bytes"
	"text/template"
)

const systemPrompt = "You are a professional translator. Before translating you work out what the text means, " +
	"the context it was written in and the voice of its author, and your translation keeps that style and intent."

var userTemplate = template.Must(template.New("user").Parse(`Understand the text first, then translate it.
1. Read the {{.Source}} text below and work out:
   - what the writer wants to say and in which context
   - the meaning behind each phrase
   - the tone and style of the writer

2. Translate it into {{.Target}} so that it:
   - uses everyday language at an intermediate level
   - keeps the original meaning and context
   - keeps the personal style of the writer
   - reads naturally, as if the author wrote it
   - uses only simple punctuation: periods, commas, question marks, exclamation marks
   - avoids semicolons, dashes and parentheses

Text to translate:
{{.Text}}

Translation:`))

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildMessages(req Request) ([]message, error) {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, req); err != nil {
		return nil, err
	}
	return []message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buf.String()},
	}, nil
}
