// Package telegram talks to the Telegram Bot API over its documented HTTP
// contract: multipart sendDocument, sendMessage and long-poll getUpdates.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient builds a client for the given API base (usually
// https://api.telegram.org). The upload timeout is fixed at 120 seconds.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Configured reports whether a bot token is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

type Message struct {
	MessageID int64 `json:"message_id"`
	Chat      Chat  `json:"chat"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	ID int64 `json:"id"`
}

type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// APIError is a non-2xx response or a 2xx response whose ok flag is false.
// Body carries the raw response for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) decode(resp *http.Response, result any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var api apiResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || json.Unmarshal(body, &api) != nil || !api.OK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if result != nil {
		return json.Unmarshal(api.Result, result)
	}
	return nil
}

// SendDocument uploads the file at path to chatID as a document.
func (c *Client) SendDocument(ctx context.Context, chatID, path string) (*Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", chatID); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendDocument"), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := c.decode(resp, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendMessage posts a plain text message to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	data := url.Values{}
	data.Set("chat_id", chatID)
	data.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendMessage"), bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	return c.decode(resp, nil)
}

// GetUpdates long-polls for updates after offset. timeout is the poll wait
// in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("getUpdates")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	// The long poll must outlive the client timeout.
	httpc := &http.Client{Timeout: time.Duration(timeout+30) * time.Second}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := c.decode(resp, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
