// Package brain is the streaming client for the local inference endpoint.
// It speaks the newline-delimited JSON protocol of POST /api/generate and
// exposes the model output as a lazy sequence of text chunks.
package brain

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"umbrasol/internal/config"
	"umbrasol/internal/logging"
)

// Options tune a single generation. Zero values fall back to the client's
// configured defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
	NumThreads  int
	ContextSize int
}

// Client streams completions from the local endpoint.
type Client struct {
	endpoint     string
	model        string
	defaults     Options
	streamLimit  time.Duration
	chunkLimit   time.Duration
	httpClient   *http.Client
}

// NewClient builds a client from the brain configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Brain.BaseURL, "/") + "/api/generate",
		model:    cfg.Brain.Model,
		defaults: Options{
			Temperature: cfg.Brain.Temperature,
			MaxTokens:   cfg.Brain.MaxTokens,
			NumThreads:  cfg.Brain.NumThreads,
			ContextSize: cfg.Brain.ContextSize,
		},
		streamLimit: cfg.StreamTimeout(),
		chunkLimit:  cfg.ChunkTimeout(),
		// Per-request deadlines come from the stream timeout; the
		// transport itself stays unbounded.
		httpClient: &http.Client{},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	NumThread   int     `json:"num_thread"`
	NumCtx      int     `json:"num_ctx"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *Client) merged(opts Options) Options {
	if opts.Temperature == 0 {
		opts.Temperature = c.defaults.Temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = c.defaults.MaxTokens
	}
	if opts.NumThreads == 0 {
		opts.NumThreads = c.defaults.NumThreads
	}
	if opts.ContextSize == 0 {
		opts.ContextSize = c.defaults.ContextSize
	}
	return opts
}

// Stream sends (system prompt, prompt) and returns a lazy chunk sequence.
// The channel is closed on end-of-stream; failures and timeouts produce a
// single terminal chunk beginning with "ERROR:".
func (c *Client) Stream(ctx context.Context, systemPrompt, prompt string, opts Options) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		c.stream(ctx, systemPrompt, prompt, opts, out)
	}()
	return out
}

func (c *Client) stream(ctx context.Context, systemPrompt, prompt string, opts Options, out chan<- string) {
	opts = c.merged(opts)

	ctx, cancel := context.WithTimeout(ctx, c.streamLimit)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: systemPrompt + "\n" + prompt,
		Stream: true,
		Options: generateOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
			NumThread:   opts.NumThreads,
			NumCtx:      opts.ContextSize,
		},
	})
	if err != nil {
		out <- fmt.Sprintf("ERROR: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		out <- fmt.Sprintf("ERROR: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Errorf("brain: request failed: %v", err)
		out <- fmt.Sprintf("ERROR: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		out <- fmt.Sprintf("ERROR: endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return
	}

	// Lines are read on a separate goroutine so the inter-chunk timeout
	// can fire while the scanner blocks.
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	chunkTimer := time.NewTimer(c.chunkLimit)
	defer chunkTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			out <- "ERROR: stream timed out"
			return
		case <-chunkTimer.C:
			cancel()
			out <- "ERROR: inter-chunk timeout"
			return
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						out <- fmt.Sprintf("ERROR: %v", err)
					}
				default:
				}
				return
			}
			if !chunkTimer.Stop() {
				<-chunkTimer.C
			}
			chunkTimer.Reset(c.chunkLimit)

			if strings.TrimSpace(line) == "" {
				continue
			}
			var chunk generateChunk
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				logging.Debugf("brain: skipping malformed chunk: %v", err)
				continue
			}
			if chunk.Done {
				return
			}
			if chunk.Response != "" {
				select {
				case out <- chunk.Response:
				case <-ctx.Done():
					out <- "ERROR: stream timed out"
					return
				}
			}
		}
	}
}

// Generate runs a non-streamed completion by accumulating the stream. An
// "ERROR:" terminal chunk makes the whole result an error string.
func (c *Client) Generate(ctx context.Context, systemPrompt, prompt string, opts Options) string {
	var b strings.Builder
	for chunk := range c.Stream(ctx, systemPrompt, prompt, opts) {
		if strings.HasPrefix(chunk, "ERROR:") && b.Len() == 0 {
			return chunk
		}
		b.WriteString(chunk)
	}
	return b.String()
}
