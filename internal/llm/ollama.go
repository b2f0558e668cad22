package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"metadata-validator/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// ErrNoJSON is returned when the model reply contains no JSON object
var ErrNoJSON = errors.New("model reply contains no JSON object")

// OllamaLLM generates reference descriptions for fields with an Ollama model
type OllamaLLM struct {
	Client *api.Client
	Model  string
}

// ResolveHost returns the Ollama base URL. An empty host falls back to
// OLLAMA_HOST; a host without a scheme is assumed to be plain http.
func ResolveHost(host string) (*url.URL, error) {
	if host == "" {
		return envconfig.Host(), nil
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama host %q: %w", host, err)
	}
	return u, nil
}

// NewOllamaLLM creates a new Ollama LLM client
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	hostURL, err := ResolveHost(host)
	if err != nil {
		return nil, err
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaLLM{
		Client: client,
		Model:  model,
	}, nil
}

// GeneratePrompt asks for a description of one field, answered as JSON
func (o *OllamaLLM) GeneratePrompt(field models.FieldRecord) string {
	var promptBuilder strings.Builder

	promptBuilder.WriteString("You are a data governance analyst documenting an enterprise data catalog. ")
	promptBuilder.WriteString("Write a one-sentence business definition for the field below, ")
	promptBuilder.WriteString("its most likely SQL data type, and its sensitivity classification ")
	promptBuilder.WriteString("(one of Public, Internal, Confidential, Restricted).\n\n")

	fmt.Fprintf(&promptBuilder, "Table: %s\n", field.TableName)
	fmt.Fprintf(&promptBuilder, "Field: %s\n", field.FieldName)
	if field.DataType != "" {
		fmt.Fprintf(&promptBuilder, "Declared type: %s\n", field.DataType)
	}

	promptBuilder.WriteString("\nRespond with a JSON object with the keys ")
	promptBuilder.WriteString(`"definition", "data_type" and "sensitivity".`)

	return promptBuilder.String()
}

// GenerateResponse generates a complete response from the LLM
func (o *OllamaLLM) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Format: json.RawMessage(`"json"`),
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 256,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}

// Describe produces a generated reference description for a field
func (o *OllamaLLM) Describe(ctx context.Context, field models.FieldRecord) (models.GeneratedDescription, error) {
	reply, err := o.GenerateResponse(ctx, o.GeneratePrompt(field))
	if err != nil {
		return models.GeneratedDescription{}, err
	}
	return ParseDescription(reply)
}

// ParseDescription decodes the first JSON object found in a model reply
func ParseDescription(reply string) (models.GeneratedDescription, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return models.GeneratedDescription{}, ErrNoJSON
	}

	var desc models.GeneratedDescription
	if err := json.Unmarshal([]byte(reply[start:end+1]), &desc); err != nil {
		return models.GeneratedDescription{}, fmt.Errorf("failed to decode model reply: %w", err)
	}
	desc.Definition = strings.TrimSpace(desc.Definition)
	desc.DataType = strings.TrimSpace(desc.DataType)
	desc.Sensitivity = strings.TrimSpace(desc.Sensitivity)
	return desc, nil
}
