package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notesync/model"
	"notesync/repository"
)

// NotesAPI is the slice of the notes server the editor needs.
type NotesAPI interface {
	GetNote(ctx context.Context, id string) (*model.Note, error)
	UpdateNote(ctx context.Context, id string, upd model.NoteUpdate) (*model.Note, error)
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notes api: %d %s", e.Status, e.Message)
}

// Unwrap lets callers match server answers with the same sentinels the
// server uses.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return repository.ErrNoteNotFound
	case http.StatusConflict:
		return repository.ErrSlugTaken
	case http.StatusBadRequest:
		return ErrValidation
	}
	return nil
}

var _ NotesAPI = (*HTTPClient)(nil)

// HTTPClient talks to the /api/notes routes with a bearer token.
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Data  *model.Note `json:"data"`
	Error string      `json:"error"`
}

func (c *HTTPClient) GetNote(ctx context.Context, id string) (*model.Note, error) {
	return c.do(ctx, http.MethodGet, "/notes/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) UpdateNote(ctx context.Context, id string, upd model.NoteUpdate) (*model.Note, error) {
	return c.do(ctx, http.MethodPatch, "/notes/"+url.PathEscape(id), upd)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*model.Note, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%s %s: empty response", method, path)
	}
	return env.Data, nil
}
