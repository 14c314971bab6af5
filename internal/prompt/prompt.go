// Package prompt loads .prompt files: optional YAML front matter followed by
// a Handlebars template.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mbleigh/raymond"
	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

var ErrInvalidPrompt = errors.New("invalid prompt")

type frontMatter struct {
	Model  string `yaml:"model"`
	Config struct {
		Temperature *float32 `yaml:"temperature"`
	} `yaml:"config"`
	Input struct {
		Schema map[string]any `yaml:"schema"`
	} `yaml:"input"`
	Tools []string `yaml:"tools"`
}

// Prompt is a parsed template with its settings
type Prompt struct {
	Name string
	// Model replaces the configured model for this prompt, e.g. openai/gpt-4o
	Model       string
	Temperature *float32
	Tools       []string
	InputSchema map[string]any

	template *raymond.Template
}

// Parse reads a prompt source. The front matter block is optional.
func Parse(name, source string) (*Prompt, error) {
	meta, body, err := splitFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPrompt, name, err)
	}

	var fm frontMatter
	if meta != "" {
		if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
			return nil, fmt.Errorf("%w %q: front matter: %w", ErrInvalidPrompt, name, err)
		}
	}

	tpl, err := raymond.Parse(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("%w %q: template: %w", ErrInvalidPrompt, name, err)
	}

	return &Prompt{
		Name:        name,
		Model:       fm.Model,
		Temperature: fm.Config.Temperature,
		Tools:       fm.Tools,
		InputSchema: fm.Input.Schema,
		template:    tpl,
	}, nil
}

// Render executes the template. String inputs are inserted verbatim, not HTML escaped.
func (p *Prompt) Render(input map[string]any) (string, error) {
	data := make(map[string]any, len(input))
	for k, v := range input {
		if s, ok := v.(string); ok {
			data[k] = raymond.SafeString(s)
			continue
		}
		data[k] = v
	}

	out, err := p.template.Exec(data)
	if err != nil {
		return "", fmt.Errorf("render prompt %q: %w", p.Name, err)
	}
	return out, nil
}

func splitFrontMatter(source string) (meta, body string, err error) {
	source = strings.TrimPrefix(source, "\ufeff")
	if !strings.HasPrefix(source, frontMatterDelim) {
		return "", source, nil
	}

	rest := strings.TrimPrefix(source, frontMatterDelim)
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 || strings.TrimSpace(rest[:nl]) != "" {
		return "", source, nil
	}
	rest = rest[nl+1:]

	lines := strings.SplitAfter(rest, "\n")
	offset := 0
	for _, line := range lines {
		if strings.TrimRight(line, "\r\n") == frontMatterDelim {
			return rest[:offset], rest[offset+len(line):], nil
		}
		offset += len(line)
	}
	return "", "", errors.New("front matter is not closed")
}
