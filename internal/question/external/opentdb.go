package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Open Trivia DB response codes.
const (
	openTDBOK            = 0
	openTDBNoResults     = 1
	openTDBInvalidParam  = 2
	openTDBTokenNotFound = 3
	openTDBTokenEmpty    = 4
	openTDBRateLimit     = 5
)

// ErrNoResults means the provider has fewer questions than requested for
// the category and difficulty.
var ErrNoResults = errors.New("not enough questions for query")

// ResponseCodeError carries a non-zero Open Trivia DB response_code.
type ResponseCodeError struct {
	Code int
}

func (e *ResponseCodeError) Error() string {
	var reason string
	switch e.Code {
	case openTDBNoResults:
		reason = "no results"
	case openTDBInvalidParam:
		reason = "invalid parameter"
	case openTDBTokenNotFound, openTDBTokenEmpty:
		reason = "session token exhausted"
	case openTDBRateLimit:
		reason = "rate limited"
	default:
		reason = "unknown"
	}
	return fmt.Sprintf("opentdb: response code %d (%s)", e.Code, reason)
}

func (e *ResponseCodeError) Is(target error) bool {
	return target == ErrNoResults && e.Code == openTDBNoResults
}

// OpenTDBClient fetches multiple-choice questions from the Open Trivia DB.
// No API key is needed.
type OpenTDBClient struct {
	upstream
}

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	return &OpenTDBClient{upstream: newUpstream("opentdb", baseURL, "https://opentdb.com", httpClient)}
}

// OpenTDBQuestion is a raw result. Text fields are HTML-entity encoded.
type OpenTDBQuestion struct {
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	Difficulty      string   `json:"difficulty"`
	Question        string   `json:"question"`
	CorrectAnswer   string   `json:"correct_answer"`
	IncorrectAnswer []string `json:"incorrect_answers"`
}

// Fetch requests up to amount questions (at most 50). category is the
// numeric OpenTDB category id; empty means any category.
func (c *OpenTDBClient) Fetch(ctx context.Context, amount int, category, difficulty string) ([]OpenTDBQuestion, error) {
	query := url.Values{
		"amount": {strconv.Itoa(clampBatch(amount))},
		"type":   {"multiple"},
	}
	if category != "" {
		query.Set("category", category)
	}
	if difficulty != "" {
		query.Set("difficulty", difficulty)
	}

	var body struct {
		ResponseCode int               `json:"response_code"`
		Results      []OpenTDBQuestion `json:"results"`
	}
	if err := c.getJSON(ctx, "/api.php", query, &body); err != nil {
		return nil, err
	}
	if body.ResponseCode != openTDBOK {
		return nil, &ResponseCodeError{Code: body.ResponseCode}
	}
	return body.Results, nil
}
