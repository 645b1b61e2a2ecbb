package http

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// EventStream reads server-sent events from one response body. It is a
// finite, non-restartable sequence: Recv returns one event payload at a
// time and io.EOF after the server closes the stream.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// DoStreamRequest opens a server-sent-events request. The caller owns the
// returned stream and must Close it to release the connection; cancelling
// ctx aborts the stream mid-read.
func (c *Connector) DoStreamRequest(ctx context.Context, method, endpoint string, reqBody any) (*EventStream, error) {
	req, err := c.newJSONRequest(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return &EventStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// Recv returns the payload of the next "data:" line, skipping blank
// separator lines. It returns io.EOF when the stream is exhausted.
func (s *EventStream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			return strings.TrimPrefix(data, " "), nil
		}
		// Ignore comments and unknown SSE fields (event:, id:, retry:).
	}
	if err := s.scanner.Err(); err != nil {
		return "", &NetworkError{Err: err}
	}
	return "", io.EOF
}

func (s *EventStream) Close() error {
	return s.body.Close()
}
