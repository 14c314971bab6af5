package flow

import (
	"fmt"
	"strings"
)

// Flow names
const (
	SimpleJoke = "simpleJoke"
	ToolJoke   = "toolJoke"
	MyFlow     = "myFlow"
	PromptJoke = "promptJoke"
)

const (
	DefaultMaxToolRounds = 5
	DefaultRetrievalK    = 3
)

// Definition declares a flow. Exactly one of Template and PromptFile is set.
type Definition struct {
	Name        string
	Template    string
	PromptFile  string
	Temperature float32
	Tools       []string
	Retrieval   *RetrievalConfig
}

// RetrievalConfig makes the flow gather context before generating.
// An empty Query means the user text is used.
type RetrievalConfig struct {
	Index string
	Query string
	K     int
}

func (d Definition) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("flow name is required")
	}
	if (d.Template == "") == (d.PromptFile == "") {
		return fmt.Errorf("flow %q needs exactly one of template or prompt file", d.Name)
	}
	if d.Retrieval != nil {
		if d.Retrieval.Index == "" {
			return fmt.Errorf("flow %q: retrieval index is required", d.Name)
		}
		if d.Retrieval.K <= 0 {
			return fmt.Errorf("flow %q: retrieval k must be positive", d.Name)
		}
	}
	return nil
}

// DefaultDefinitions are the joke flows served by default. Retrieval uses index.
// simpleJoke always runs at temperature 1, the rest use temperature.
func DefaultDefinitions(index string, temperature float32) []Definition {
	return []Definition{
		{
			Name:        SimpleJoke,
			Template:    "Tell me ajoke about {{text}}",
			Temperature: 1,
		},
		{
			Name:        ToolJoke,
			Template:    "Tell me a joke about {{text}}",
			Temperature: temperature,
			Tools:       []string{"getJoke"},
		},
		{
			Name:        MyFlow,
			Template:    "Tell me a joke about {{text}}. Create a joke structure that follows best practices and explain which ones you used.",
			Temperature: temperature,
			Tools:       []string{"getJoke"},
			Retrieval: &RetrievalConfig{
				Index: index,
				Query: "Joke structure best practices",
				K:     DefaultRetrievalK,
			},
		},
		{
			Name:        PromptJoke,
			PromptFile:  "joke",
			Temperature: temperature,
		},
	}
}
