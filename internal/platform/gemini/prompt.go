package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/tasks-api/internal/generation"
)

//go:embed prompts/tasks.tmpl
var defaultPromptTemplate string

// loadPromptTemplate parses the template at path, or the embedded default
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	text := defaultPromptTemplate
	name := "tasks"
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		text = string(content)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// createPromptFromTemplate renders tmpl for the given goal and task count.
func createPromptFromTemplate(
	ctx context.Context,
	logger *slog.Logger,
	tmpl *template.Template,
	prompt string,
	count int,
) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Prompt: prompt, Count: count}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	logger.DebugContext(ctx, "prompt generated from template",
		slog.String("template_name", tmpl.Name()),
		slog.Int("prompt_length", buf.Len()))

	return buf.String(), nil
}
