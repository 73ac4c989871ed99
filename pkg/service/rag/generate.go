package rag

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

//go:embed prompt/grounded_system.md
var groundedSystemPromptTmpl string

//go:embed prompt/conversational_system.md
var conversationalSystemPromptTmpl string

var (
	groundedSystemPrompt       = template.Must(template.New("grounded_system").Parse(groundedSystemPromptTmpl))
	conversationalSystemPrompt = template.Must(template.New("conversational_system").Parse(conversationalSystemPromptTmpl))
)

// emptyContextPlaceholder is injected when retrieval returned nothing,
// so the model is told explicitly that no event matched instead of being
// asked to answer from an empty context.
const emptyContextPlaceholder = "Aucun événement trouvé pour cette recherche."

// generateGrounded produces the final answer conditioned on retrieved
// event context and the recent conversation window.
func (e *Engine) generateGrounded(ctx context.Context, query string, results []*model.SearchResult, history []*model.Message) (string, error) {
	var buf bytes.Buffer
	data := map[string]string{
		"Persona": e.persona,
		"Context": buildContext(results),
	}
	if err := groundedSystemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render grounded system prompt")
	}

	response, err := e.generator.Generate(ctx, buf.String(), e.renderUserPrompt(query, history))
	if err != nil {
		return "", goerr.Wrap(err, "grounded generation failed", goerr.V("query", query))
	}
	return response, nil
}

// generateConversational produces a friendly non-grounded reply
func (e *Engine) generateConversational(ctx context.Context, query string, history []*model.Message) (string, error) {
	var buf bytes.Buffer
	if err := conversationalSystemPrompt.Execute(&buf, map[string]string{"Persona": e.persona}); err != nil {
		return "", goerr.Wrap(err, "failed to render conversational system prompt")
	}

	response, err := e.generator.Generate(ctx, buf.String(), e.renderUserPrompt(query, history))
	if err != nil {
		return "", goerr.Wrap(err, "conversational generation failed", goerr.V("query", query))
	}
	return response, nil
}

// buildContext concatenates retrieved documents under numbered event
// headers for injection into the system prompt.
func buildContext(results []*model.SearchResult) string {
	if len(results) == 0 {
		return emptyContextPlaceholder
	}

	var sb strings.Builder
	sb.WriteString("Événements pertinents :\n\n")
	for i, result := range results {
		fmt.Fprintf(&sb, "Événement %d:\n%s\n\n", i+1, result.Document.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderUserPrompt folds the capped history window into the user prompt
// as a transcript. The generator drives single-shot sessions, so prior
// turns travel inside the prompt text.
func (e *Engine) renderUserPrompt(query string, history []*model.Message) string {
	window := capHistory(history, e.historyLimit)
	if len(window) == 0 {
		return query
	}

	var sb strings.Builder
	sb.WriteString("Historique de la conversation :\n")
	for _, msg := range window {
		switch msg.Role {
		case types.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("Utilisateur: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nUtilisateur: ")
	sb.WriteString(query)
	return sb.String()
}

// capHistory keeps the most recent limit messages, preserving order
func capHistory(history []*model.Message, limit int) []*model.Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
