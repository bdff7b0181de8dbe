package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func Test_PlanPrompt(t *testing.T) {
	prompt := PlanPrompt(
		[]string{"우유", " ", "계란"},
		map[string]string{"선호 음식": "한식", "식이 제한": "저탄수화물", "allergies": "none"},
		0,
		"Korean",
	)

	assert.Equal(t, "These ingredients in my fridge are about to expire: 우유, 계란.\n"+
		"Recommend quick recipes that use them for 7 days.\n"+
		"For every day plan breakfast, lunch and dinner. For each meal list the ingredients used, "+
		"the cooking method, estimated calories, cooking time, difficulty and nutrition information.\n"+
		"Write the recipes in Korean and keep waste of the expiring ingredients to a minimum.\n"+
		"- allergies: none\n"+
		"- 선호 음식: 한식\n"+
		"- 식이 제한: 저탄수화물\n", prompt)
}

func Test_PlanPrompt_Days(t *testing.T) {
	prompt := PlanPrompt([]string{"tofu"}, nil, 3, "English")

	assert.Contains(t, prompt, "for 3 days")
	assert.Contains(t, prompt, "in English")
}

func Test_ProductPrompt(t *testing.T) {
	testCases := []struct {
		name        string
		ingredients []string
		contains    []string
		absent      []string
	}{
		{
			name:        "with ingredients",
			ingredients: []string{"김치", "돼지고기"},
			contains:    []string{"use 두부", "together with it: 김치, 돼지고기."},
		},
		{
			name:     "without ingredients",
			contains: []string{"use 두부"},
			absent:   []string{"together with it"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prompt := ProductPrompt("두부", tc.ingredients, "Korean")
			for _, c := range tc.contains {
				assert.Contains(t, prompt, c)
			}
			for _, a := range tc.absent {
				assert.NotContains(t, prompt, a)
			}
		})
	}
}

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}
}

func Test_OpenAIRecommender_Plan(t *testing.T) {
	testCases := []struct {
		name        string
		ingredients []string
		response    openai.ChatCompletionResponse
		clientErr   error
		expectCall  bool
		expected    string
		expectError error
	}{
		{
			name:        "Success",
			ingredients: []string{"우유"},
			response:    completion("  월요일: 우유 푸딩  "),
			expectCall:  true,
			expected:    "월요일: 우유 푸딩",
		},
		{
			name:        "Error - no ingredients",
			ingredients: []string{"", " "},
			expectError: fridgeerrors.ErrNoIngredients,
		},
		{
			name:        "Error - endpoint failure",
			ingredients: []string{"우유"},
			response:    openai.ChatCompletionResponse{},
			clientErr:   errors.New("503"),
			expectCall:  true,
			expectError: fridgeerrors.ErrRecipeUnavailable,
		},
		{
			name:        "Error - empty completion",
			ingredients: []string{"우유"},
			response:    openai.ChatCompletionResponse{},
			expectCall:  true,
			expectError: fridgeerrors.ErrRecipeUnavailable,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			client := new(mockChatClient)
			if tc.expectCall {
				client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
					return req.Model == "google/gemma-2-9b-it" && len(req.Messages) == 2 &&
						req.Messages[1].Role == openai.ChatMessageRoleUser
				})).Return(tc.response, tc.clientErr).Once()
			}
			r := &OpenAIRecommender{client: client, model: "google/gemma-2-9b-it", language: "Korean", timeout: time.Second, logger: discard}
			// when
			got, err := r.Plan(context.Background(), tc.ingredients, nil, 7)
			// then
			client.AssertExpectations(t)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func Test_OpenAIRecommender_ForProduct_HTTP(t *testing.T) {
	// given
	var received openai.ChatCompletionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("두부조림"))
	}))
	defer srv.Close()
	r := NewOpenAIRecommender(config.RecipeConfig{
		Enabled:  true,
		BaseURL:  srv.URL + "/v1/",
		APIKey:   "hf_token",
		Model:    "google/gemma-2-9b-it",
		Language: "Korean",
		Timeout:  5 * time.Second,
	}, discard)

	// when
	got, err := r.ForProduct(context.Background(), "두부", []string{"간장"})

	// then
	require.NoError(t, err)
	assert.Equal(t, "두부조림", got)
	assert.Equal(t, "Bearer hf_token", auth)
	assert.Equal(t, "google/gemma-2-9b-it", received.Model)
	require.Len(t, received.Messages, 2)
	assert.Contains(t, received.Messages[1].Content, "두부")
}

func Test_OpenAIRecommender_ForProduct_EmptyName(t *testing.T) {
	r := &OpenAIRecommender{client: new(mockChatClient), logger: discard}

	_, err := r.ForProduct(context.Background(), " ", nil)

	assert.ErrorIs(t, err, fridgeerrors.ErrNoIngredients)
}
