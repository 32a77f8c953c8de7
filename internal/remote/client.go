// Package remote HTTP-клиент сервера синхронизации документов.
package remote

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

	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

var (
	// ErrNotFound у пользователя еще нет документа.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable сетевая ошибка, таймаут или ответ не 2xx.
	ErrUnavailable = errors.New("sync server unavailable")
)

// DefaultTimeout таймаут запроса, если в конфиге он не задан.
const DefaultTimeout = 15 * time.Second

// Client клиент сервера синхронизации.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент для сервера baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

// Fetch читает документ пользователя. Отсутствие документа дает ErrNotFound.
func (c *Client) Fetch(ctx context.Context, userID string) (*wire.Document, error) {
	const op = "remote.Fetch"
	req, err := c.newRequest(ctx, http.MethodGet, "/api/sync/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var doc wire.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w: decode body: %w", op, ErrUnavailable, err)
	}
	return &doc, nil
}

// Push отправляет документ. Поля, отсутствующие в doc, сервер не меняет.
func (c *Client) Push(ctx context.Context, doc wire.Document) error {
	const op = "remote.Push"
	req, err := c.newRequest(ctx, http.MethodPost, "/api/sync", doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет документ пользователя целиком.
func (c *Client) Delete(ctx context.Context, userID string) error {
	const op = "remote.Delete"
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/sync/"+url.PathEscape(userID), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Upload загружает вложение и возвращает ссылку на него.
func (c *Client) Upload(ctx context.Context, in wire.UploadRequest) (*wire.UploadResponse, error) {
	const op = "remote.Upload"
	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out wire.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w: decode body: %w", op, ErrUnavailable, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%s: %w: upload rejected", op, ErrUnavailable)
	}
	return &out, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: unexpected status %s: %s", ErrUnavailable, resp.Status, strings.TrimSpace(string(body)))
}
