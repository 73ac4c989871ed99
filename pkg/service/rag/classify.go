package rag

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

//go:embed prompt/classify.md
var classifyPromptTmpl string

var classifyPrompt = template.Must(template.New("classify").Parse(classifyPromptTmpl))

// retrievalMarker is the literal the classifier prompt instructs the
// model to answer with when the query needs event retrieval. Matched as
// a case-insensitive substring; any other output falls back to the
// conversational path, which is the cheaper and lower-risk default.
const retrievalMarker = "SEARCH"

// classify labels the query with a single short generation call. The
// prompt demands a one-word answer; ambiguous or garbled output routes
// to conversation rather than to an ungrounded "confident" answer.
func (e *Engine) classify(ctx context.Context, query string) (types.Route, error) {
	var buf bytes.Buffer
	if err := classifyPrompt.Execute(&buf, map[string]string{"Query": query}); err != nil {
		return "", goerr.Wrap(err, "failed to render classification prompt")
	}

	out, err := e.generator.Generate(ctx, "", buf.String())
	if err != nil {
		return "", goerr.Wrap(err, "classification call failed", goerr.V("query", query))
	}

	if strings.Contains(strings.ToUpper(out), retrievalMarker) {
		return types.RouteRetrieval, nil
	}
	return types.RouteConversational, nil
}
