package redcap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"unicode/utf8"

	"redcap-client/internal/common/metrics"
)

// FileLocation addresses a file-upload field on a record.
type FileLocation struct {
	Record         string
	Field          string
	Event          string // event name if longitudinal
	RepeatInstance string // which instance if instrument/event is repeating
}

// GetFile exports the file attached to a file-upload field. The filename is
// carried in the Content-Type header; the server percent-escapes it and
// mislabels utf-8 bytes as latin-1, both of which are undone here.
func (c *Client) GetFile(ctx context.Context, loc FileLocation) (*File, error) {
	resp, err := c.fileRequest(ctx, "export", loc, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}

	filename := ""
	if _, ctParams, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		filename = decodeFilename(ctParams["name"])
	}

	return &File{Filename: filename, Body: body}, nil
}

// SetFile attaches a file to a file-upload field on a record.
func (c *Client) SetFile(ctx context.Context, loc FileLocation, filename string, contents io.Reader) error {
	resp, err := c.fileRequest(ctx, "import", loc, filename, contents)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// DeleteFile removes the file attached to a file-upload field on a record.
func (c *Client) DeleteFile(ctx context.Context, loc FileLocation) error {
	resp, err := c.fileRequest(ctx, "delete", loc, "", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// fileRequest issues a multipart "file" API call. File responses are binary,
// so this bypasses the JSON call path.
func (c *Client) fileRequest(ctx context.Context, action string, loc FileLocation, filename string, contents io.Reader) (*http.Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"token":           c.apiToken,
		"content":         "file",
		"returnFormat":    "json",
		"action":          action,
		"record":          loc.Record,
		"field":           loc.Field,
		"event":           loc.Event,
		"repeat_instance": loc.RepeatInstance,
	}
	for k, v := range fields {
		if v == "" && (k == "event" || k == "repeat_instance") {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	if contents != nil {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, contents); err != nil {
			return nil, fmt.Errorf("failed to write file contents: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		metrics.APIRequests.WithLabelValues("file", "error").Inc()
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	metrics.APIRequests.WithLabelValues("file", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

func decodeFilename(name string) string {
	if unescaped, err := url.QueryUnescape(name); err == nil {
		name = unescaped
	}
	return latin1ToUTF8(name)
}

// latin1ToUTF8 undoes the server reading utf-8 bytes as latin-1.
func latin1ToUTF8(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return s // not a latin-1 round trip after all
		}
		b = append(b, byte(r))
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return s
}
