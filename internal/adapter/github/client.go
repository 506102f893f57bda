package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/domain"
)

const (
	providerName   = "github"
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
)

// Client is an HTTP client for the GitHub Pull Requests API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  llmhttp.RetryConfig
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  llmhttp.DefaultRetryConfig(),
	}
}

// SetBaseURL sets a custom base URL (for testing or GitHub Enterprise).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig overrides the default retry behavior.
func (c *Client) SetRetryConfig(conf llmhttp.RetryConfig) {
	c.retryConf = conf
}

// ListCommits returns the PR's commits, oldest first.
func (c *Client) ListCommits(ctx context.Context, owner, repo string, pullNumber int) ([]domain.CommitRef, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/commits?per_page=100", owner, repo, pullNumber)

	var items []commitItem
	if err := c.doJSON(ctx, "GET", path, nil, &items); err != nil {
		return nil, err
	}

	commits := make([]domain.CommitRef, 0, len(items))
	for _, item := range items {
		commits = append(commits, domain.CommitRef{SHA: item.SHA})
	}
	return commits, nil
}

// ListFiles returns the PR's changed files over the full base...head range.
func (c *Client) ListFiles(ctx context.Context, owner, repo string, pullNumber int) ([]domain.FileDiff, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=100", owner, repo, pullNumber)

	var items []fileItem
	if err := c.doJSON(ctx, "GET", path, nil, &items); err != nil {
		return nil, err
	}
	return toFileDiffs(items), nil
}

// CompareCommits returns the diff between two refs or commit SHAs.
func (c *Client) CompareCommits(ctx context.Context, owner, repo, base, head string) (domain.Comparison, error) {
	path := fmt.Sprintf("/repos/%s/%s/compare/%s...%s",
		owner, repo, url.PathEscape(base), url.PathEscape(head))

	var resp compareResponse
	if err := c.doJSON(ctx, "GET", path, nil, &resp); err != nil {
		return domain.Comparison{}, err
	}

	commits := make([]domain.CommitRef, 0, len(resp.Commits))
	for _, item := range resp.Commits {
		commits = append(commits, domain.CommitRef{SHA: item.SHA})
	}
	return domain.Comparison{Files: toFileDiffs(resp.Files), Commits: commits}, nil
}

// CreateReviewComment posts an inline review comment anchored at a
// diff position against the given commit SHA.
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, pullNumber int, commitSHA, path string, position int, body string) error {
	reqPath := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", owner, repo, pullNumber)
	req := createCommentRequest{
		Body:     body,
		CommitID: commitSHA,
		Path:     path,
		Position: position,
	}
	return c.doJSON(ctx, "POST", reqPath, req, nil)
}

// CreateReview posts a top-level PR review with the given event.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, pullNumber int, body string, event ReviewEvent) error {
	reqPath := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, pullNumber)
	req := createReviewRequest{Body: body, Event: event}
	return c.doJSON(ctx, "POST", reqPath, req, nil)
}

// doJSON executes one API call with retry, marshaling reqBody (when
// non-nil) and unmarshaling the response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var jsonData []byte
	if reqBody != nil {
		var err error
		jsonData, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	operation := func(ctx context.Context) error {
		var bodyReader io.Reader
		if jsonData != nil {
			bodyReader = bytes.NewReader(jsonData)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if jsonData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			return llmhttp.NewTimeoutError(providerName, callErr.Error())
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}

		if resp.StatusCode >= 400 {
			return mapHTTPError(resp.StatusCode, body)
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return llmhttp.RetryWithBackoff(ctx, operation, c.retryConf)
}

// mapHTTPError converts GitHub error responses to typed errors.
func mapHTTPError(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		// 403 with a rate-limit message is GitHub's primary rate limiting.
		if isRateLimited(message) {
			return llmhttp.NewRateLimitError(providerName, message)
		}
		return llmhttp.NewAuthenticationError(providerName, message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError(providerName, message)
	case http.StatusNotFound:
		return llmhttp.NewNotFoundError(providerName, message)
	case http.StatusUnprocessableEntity:
		return llmhttp.NewInvalidRequestError(providerName, message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			Provider:   providerName,
		}
	}
}

func isRateLimited(message string) bool {
	return bytes.Contains(bytes.ToLower([]byte(message)), []byte("rate limit"))
}

func toFileDiffs(items []fileItem) []domain.FileDiff {
	files := make([]domain.FileDiff, 0, len(items))
	for _, item := range items {
		files = append(files, domain.FileDiff{
			Path:   item.Filename,
			Status: item.Status,
			Patch:  item.Patch,
		})
	}
	return files
}
