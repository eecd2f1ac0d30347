// Package qaclient talks to the document question-answering backend.
package qaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const DefaultBaseURL = "http://localhost:8000"

// Client issues one HTTP request per operation. There are no retries, no
// timeouts beyond the caller's context, and no caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadDocument sends a PDF as the multipart field "file".
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (*Document, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &APIError{Op: "upload", Message: msgUpload, Err: fmt.Errorf("creating form part: %w", err)}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, &APIError{Op: "upload", Message: msgUpload, Err: fmt.Errorf("writing form part: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &APIError{Op: "upload", Message: msgUpload, Err: fmt.Errorf("closing multipart writer: %w", err)}
	}

	var resp uploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, "/documents/upload", &body, writer.FormDataContentType(), msgUpload, &resp); err != nil {
		return nil, err
	}
	doc := resp.descriptor()
	return &doc, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.do(ctx, "list documents", http.MethodGet, "/documents/", nil, "", msgDocuments, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

func (c *Client) AskQuestion(ctx context.Context, documentID int64, question string) (*Answer, error) {
	payload, err := json.Marshal(askRequest{DocumentID: documentID, Question: question})
	if err != nil {
		return nil, &APIError{Op: "ask", Message: msgAsk, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	var answer Answer
	if err := c.do(ctx, "ask", http.MethodPost, "/qa/ask", bytes.NewReader(payload), "application/json", msgAsk, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (c *Client) GetHistory(ctx context.Context, documentID int64) ([]QAPair, error) {
	var pairs []QAPair
	path := fmt.Sprintf("/qa/history/%d", documentID)
	if err := c.do(ctx, "history", http.MethodGet, path, nil, "", msgHistory, &pairs); err != nil {
		return nil, err
	}
	if pairs == nil {
		pairs = []QAPair{}
	}
	return pairs, nil
}

func (c *Client) Summarize(ctx context.Context, documentID int64) (*Summary, error) {
	var summary Summary
	path := fmt.Sprintf("/qa/summarize/%d", documentID)
	if err := c.do(ctx, "summarize", http.MethodPost, path, nil, "", msgSummarize, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// do performs the request and decodes a 2xx JSON body into out. Every failure
// comes back as *APIError carrying fallback unless the body had a detail.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType, fallback string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &APIError{Op: op, Message: fallback, Err: fmt.Errorf("creating request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Message: fallback, Err: fmt.Errorf("calling backend: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    detailMessage(raw, fallback),
			Err:        fmt.Errorf("backend returned status %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
