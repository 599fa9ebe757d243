// Package upload pushes assembled tests to the backend, either through the
// REST API or by inserting rows directly into its Postgres database.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// APIClient talks to the legacy backend REST API. It holds the session token
// from login; one client per upload sequence, not shared across crawls.
type APIClient struct {
	baseURL  string
	email    string
	password string
	client   *http.Client
	log      *slog.Logger

	accessToken string
	userID      string
}

// APIConfig configures an APIClient.
type APIConfig struct {
	BaseURL    string
	Email      string
	Password   string
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// NewAPIClient creates a client from cfg.
func NewAPIClient(cfg APIConfig) *APIClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &APIClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		email:    cfg.Email,
		password: cfg.Password,
		client:   client,
		log:      log,
	}
}

// loginResponse tolerates both flat and data-wrapped response envelopes.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		IDUser string `json:"idUser"`
	} `json:"user"`
	Data *loginResponse `json:"data"`
}

// Login authenticates and stores the bearer token for subsequent calls.
func (c *APIClient) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}

	token := payload.AccessToken
	userID := payload.User.IDUser
	if token == "" && payload.Data != nil {
		token = payload.Data.AccessToken
		userID = payload.Data.User.IDUser
	}
	if token == "" {
		return fmt.Errorf("login response carried no access token")
	}

	c.accessToken = token
	c.userID = userID
	c.log.Info("logged in to backend", "email", c.email)
	return nil
}

func (c *APIClient) ensureAuth(ctx context.Context) error {
	if c.accessToken != "" {
		return nil
	}
	return c.Login(ctx)
}

// postForm sends an authenticated form-encoded POST and unwraps an optional
// "data" envelope from the response.
func (c *APIClient) postForm(ctx context.Context, endpoint string, form url.Values) (map[string]any, error) {
	if err := c.ensureAuth(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	return c.do(req, endpoint)
}

// postJSON sends an authenticated JSON POST and unwraps an optional "data"
// envelope from the response.
func (c *APIClient) postJSON(ctx context.Context, endpoint string, payload any) (map[string]any, error) {
	if err := c.ensureAuth(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	return c.do(req, endpoint)
}

func (c *APIClient) do(req *http.Request, endpoint string) (map[string]any, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: status %d: %s", endpoint, resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", endpoint, err)
	}
	if data, ok := result["data"].(map[string]any); ok {
		return data, nil
	}
	return result, nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Upload is an alias for CreateFullTest so the client satisfies the
// crawler's Uploader interface.
func (c *APIClient) Upload(ctx context.Context, test *models.TestData) (string, error) {
	return c.CreateFullTest(ctx, test)
}

// CreateFullTest pushes the complete test through the REST sequence:
// test, then per part its part/passage/groups/questions, wiring generated
// identifiers down the tree. Any failure aborts the whole upload.
func (c *APIClient) CreateFullTest(ctx context.Context, test *models.TestData) (string, error) {
	if err := c.ensureAuth(ctx); err != nil {
		return "", err
	}

	form := url.Values{
		"idUser":         {c.userID},
		"title":          {test.Title},
		"testType":       {string(test.TestType)},
		"duration":       {strconv.Itoa(test.Duration)},
		"numberQuestion": {strconv.Itoa(test.NumberQuestion)},
		"level":          {string(test.Level)},
	}
	if test.Description != "" {
		form.Set("description", test.Description)
	}

	testResult, err := c.postForm(ctx, "/test/create-test", form)
	if err != nil {
		return "", fmt.Errorf("creating test: %w", err)
	}
	idTest := stringField(testResult, "idTest")
	if idTest == "" {
		return "", fmt.Errorf("create-test response carried no idTest")
	}
	c.log.Info("created test", "title", test.Title, "idTest", idTest)

	for _, part := range test.Parts {
		partResult, err := c.postForm(ctx, "/part/create-part", url.Values{
			"idTest":   {idTest},
			"namePart": {part.NamePart},
		})
		if err != nil {
			return "", fmt.Errorf("creating part %q: %w", part.NamePart, err)
		}
		idPart := stringField(partResult, "idPart")

		if part.Passage != nil {
			_, err := c.postForm(ctx, "/passage/create-passage", url.Values{
				"idPart":          {idPart},
				"title":           {part.Passage.Title},
				"content":         {part.Passage.Content},
				"numberParagraph": {strconv.Itoa(part.Passage.NumberParagraph)},
			})
			if err != nil {
				return "", fmt.Errorf("creating passage: %w", err)
			}
		}

		for _, group := range part.Groups {
			groupResult, err := c.postForm(ctx, "/group-of-questions/create-group-question", url.Values{
				"idTest":       {idTest},
				"idPart":       {idPart},
				"title":        {group.Title},
				"typeQuestion": {string(group.TypeQuestion)},
				"quantity":     {strconv.Itoa(group.Quantity)},
			})
			if err != nil {
				return "", fmt.Errorf("creating group %q: %w", group.Title, err)
			}
			idGroup := stringField(groupResult, "idGroupOfQuestions")

			if len(group.Questions) == 0 {
				continue
			}
			questions := make([]map[string]any, 0, len(group.Questions))
			for _, q := range group.Questions {
				questions = append(questions, map[string]any{
					"idGroupOfQuestions": idGroup,
					"idPart":             idPart,
					"numberQuestion":     q.NumberQuestion,
					"content":            q.Content,
					"answers":            q.Answers,
				})
			}
			if _, err := c.postJSON(ctx, "/question/create-many-questions", map[string]any{
				"questions": questions,
			}); err != nil {
				return "", fmt.Errorf("creating questions for group %q: %w", group.Title, err)
			}
		}
	}

	return idTest, nil
}
