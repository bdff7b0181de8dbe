package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const systemPrompt = "You are a helpful home cook who plans meals from what is left in the fridge."

// Recommender produces free-text recipe suggestions.
type Recommender interface {
	// ForProduct suggests recipes for one product. Returns ErrRecipeUnavailable if generation fails.
	ForProduct(ctx context.Context, productName string, ingredients []string) (string, error)

	// Plan suggests a meal plan over days. Returns ErrNoIngredients for an empty ingredient list.
	Plan(ctx context.Context, ingredients []string, preferences map[string]string, days int) (string, error)
}

// chatClient is the part of the go-openai client used here.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ Recommender = (*OpenAIRecommender)(nil)

// OpenAIRecommender talks to any OpenAI-compatible chat completion endpoint.
type OpenAIRecommender struct {
	client   chatClient
	model    string
	language string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewOpenAIRecommender creates a recommender for the configured endpoint and model.
func NewOpenAIRecommender(cfg config.RecipeConfig, logger *slog.Logger) *OpenAIRecommender {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	return &OpenAIRecommender{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		logger:   logger.With("component", "recipe"),
	}
}

func (o *OpenAIRecommender) ForProduct(ctx context.Context, productName string, ingredients []string) (string, error) {
	if strings.TrimSpace(productName) == "" {
		return "", fmt.Errorf("empty product name: %w", fridgeerrors.ErrNoIngredients)
	}
	return o.generate(ctx, ProductPrompt(productName, ingredients, o.language))
}

func (o *OpenAIRecommender) Plan(ctx context.Context, ingredients []string, preferences map[string]string, days int) (string, error) {
	if !hasIngredients(ingredients) {
		return "", fridgeerrors.ErrNoIngredients
	}
	return o.generate(ctx, PlanPrompt(ingredients, preferences, days, o.language))
}

func (o *OpenAIRecommender) generate(ctx context.Context, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	o.logger.DebugContext(ctx, "Generating recipe", "model", o.model)
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.ErrorContext(ctx, "Recipe generation failed", "model", o.model, "error", err)
		return "", fmt.Errorf("%w: %w", fridgeerrors.ErrRecipeUnavailable, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", fridgeerrors.ErrRecipeUnavailable)
	}
	o.logger.DebugContext(ctx, "Recipe generated", "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
