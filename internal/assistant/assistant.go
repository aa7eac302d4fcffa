// Package assistant forwards a prompt to a configured text generation
// endpoint and returns its answer.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatapp-client/internal/chaterr"

	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

type request struct {
	Prompt string `json:"prompt"`
}

type response struct {
	Text string `json:"text"`
}

type Client struct {
	url    string
	key    string
	client *http.Client
	sugar  *zap.SugaredLogger
}

func New(url string, key string, timeout time.Duration, sugar *zap.SugaredLogger) *Client {
	return &Client{
		url:    url,
		key:    key,
		client: &http.Client{Timeout: timeout},
		sugar:  sugar,
	}
}

// Invoke sends one prompt and waits for the whole answer.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", chaterr.Invalid("empty prompt")
	}
	if c.url == "" {
		return "", chaterr.Unavailable(errors.New("assistant is not configured"))
	}

	body, err := json.Marshal(request{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", chaterr.Unavailable(err)
	}
	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.sugar.Error(err)
		}
	}()

	switch {
	case resp.StatusCode >= 500:
		return "", chaterr.Unavailable(fmt.Errorf("assistant answered %s", resp.Status))
	case resp.StatusCode >= 300:
		return "", chaterr.Invalid("assistant answered %s", resp.Status)
	}

	var answer response
	err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&answer)
	if err != nil {
		return "", chaterr.Unavailable(fmt.Errorf("reading assistant answer: %w", err))
	}

	c.sugar.Debugf("Assistant answered %d characters", len(answer.Text))
	return answer.Text, nil
}
