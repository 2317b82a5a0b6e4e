package flow

import (
	"context"
	"testing"

	"github.com/openai/openai-go"

	"github.com/naapim/naapim/internal/registry"
)

// mockGenAIClient is a stub genai.ClientInterface returning canned responses.
type mockGenAIClient struct {
	structuredResponse string
	structuredErr      error
	moderateFlagged    bool
	moderateErr        error

	lastSystemPrompt string
	lastUserPrompt   string
	lastSchemaName   string
	structuredCalls  int
}

func (m *mockGenAIClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.structuredResponse, m.structuredErr
}

func (m *mockGenAIClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	return m.structuredResponse, m.structuredErr
}

func (m *mockGenAIClient) GenerateStructured(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema map[string]interface{}) (string, error) {
	m.structuredCalls++
	m.lastSystemPrompt = systemPrompt
	m.lastUserPrompt = userPrompt
	m.lastSchemaName = schemaName
	return m.structuredResponse, m.structuredErr
}

func (m *mockGenAIClient) ModerateContent(ctx context.Context, text string) (bool, error) {
	return m.moderateFlagged, m.moderateErr
}

// loadTestRegistry loads the embedded registry defaults.
func loadTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Load("")
	if err != nil {
		t.Fatalf("failed to load registry: %v", err)
	}
	return reg
}
