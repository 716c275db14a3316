// Package anthropic adapts the Anthropic Claude API as a lifted effect,
// and ships a demo Computation (FallbackComputation) showing the engine
// catch a genuine concurrency bug in a two-provider fallback dispatcher:
// both providers race to write a shared answer, and whichever happens to
// finish last silently wins instead of the first success being kept.
package anthropic

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/go-sct/sct/exec"
)

// Client is the narrow surface Adapter needs from a Claude client,
// mirroring graph/model/anthropic's anthropicClient seam so a fake can
// stand in during tests instead of the real SDK.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Adapter lifts calls to a Client through Handle.Lift. Whether a search
// replaying the same schedule prefix re-issues the network call depends on
// the machine's effect.Runner: a replaying runner answers from its
// recordings, the null runner calls the client every time.
type Adapter struct {
	name   string
	client Client
}

// NewAdapter builds an Adapter named name (distinguishing, e.g., "primary"
// from "secondary" in a fallback race) backed by a real Claude client for
// modelName. An empty modelName uses the same default graph/model/anthropic
// does.
func NewAdapter(name, apiKey, modelName string) *Adapter {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &Adapter{name: name, client: &sdkClient{apiKey: apiKey, modelName: modelName}}
}

// NewAdapterWithClient builds an Adapter around an already-constructed
// Client, for tests that supply a fake instead of talking to the network.
func NewAdapterWithClient(name string, client Client) *Adapter {
	return &Adapter{name: name, client: client}
}

// Complete lifts one completion call through h, recorded/replayed under the
// call name "anthropic.<name>.Complete".
func (a *Adapter) Complete(h *exec.Handle, prompt string) (string, error) {
	resp, err := h.Lift(fmt.Sprintf("anthropic.%s.Complete", a.name), []byte(prompt),
		func(ctx context.Context) ([]byte, error) {
			text, err := a.client.Complete(ctx, prompt)
			if err != nil {
				return nil, err
			}
			return []byte(text), nil
		})
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

// sdkClient wraps the official Anthropic SDK client, mirroring
// graph/model/anthropic's defaultClient.
type sdkClient struct {
	apiKey    string
	modelName string
}

func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic: API key is required")
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.modelName),
		Messages:  []anthropicsdk.MessageParam{anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt))},
		MaxTokens: 1024,
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			text += b.Text
		}
	}
	return text, nil
}
