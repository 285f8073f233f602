package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// TriviaAPIClient fetches questions from The Trivia API. The key is optional
// and only raises rate limits.
type TriviaAPIClient struct {
	upstream
}

func NewTriviaAPIClient(baseURL, apiKey string, httpClient *http.Client) *TriviaAPIClient {
	u := newUpstream("triviaapi", baseURL, "https://the-trivia-api.com/api", httpClient)
	if apiKey != "" {
		u.header.Set("X-API-Key", apiKey)
	}
	return &TriviaAPIClient{upstream: u}
}

// TriviaAPIQuestion is a raw result in plain text.
type TriviaAPIQuestion struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Question   string   `json:"question"`
	Difficulty string   `json:"difficulty"`
	Type       string   `json:"type"`
	Correct    string   `json:"correctAnswer"`
	Incorrect  []string `json:"incorrectAnswers"`
}

// Fetch requests up to amount questions (at most 50). category is a Trivia
// API slug such as "history"; empty means any category.
func (c *TriviaAPIClient) Fetch(ctx context.Context, amount int, category, difficulty string) ([]TriviaAPIQuestion, error) {
	query := url.Values{"limit": {strconv.Itoa(clampBatch(amount))}}
	if category != "" {
		query.Set("categories", category)
	}
	if difficulty != "" {
		query.Set("difficulty", difficulty)
	}

	var questions []TriviaAPIQuestion
	if err := c.getJSON(ctx, "/questions", query, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}
