package openai

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"sentvec/internal/domain"
)

// Client sources document vectors from an OpenAI-compatible embeddings
// endpoint. Build embeds every document once and caches the result per tag;
// TrainEpoch is a no-op because the remote model is already trained.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
	docVecs    map[string][]float64
	built      bool
}

// Config configures the embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a client using the provided configuration. The API key is
// read from the environment variable named by APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
		docVecs:    make(map[string][]float64),
	}, nil
}

// Name returns the identifier of this vectorizer implementation.
func (c *Client) Name() string { return "openai" }

// Dimension reports the vector length observed from the first embedding.
func (c *Client) Dimension() int { return c.dimension }

// Build embeds every document in the collection and caches vectors per tag.
func (c *Client) Build(docs []domain.TaggedDocument) error {
	if len(docs) == 0 {
		return errors.New("empty collection for embedding")
	}
	c.docVecs = make(map[string][]float64, len(docs))
	for _, doc := range docs {
		vec, err := c.embed(strings.Join(doc.Words, " "))
		if err != nil {
			return fmt.Errorf("embed %s: %w", doc.Tag, err)
		}
		c.docVecs[doc.Tag] = vec
	}
	c.built = true
	return nil
}

// TrainEpoch is a no-op for a remote pretrained model.
func (c *Client) TrainEpoch(docs []domain.TaggedDocument) error {
	if !c.built {
		return errors.New("embeddings not built")
	}
	return nil
}

// DocVector returns a copy of the cached vector for the given tag.
func (c *Client) DocVector(tag string) ([]float64, error) {
	vec, ok := c.docVecs[tag]
	if !ok {
		return nil, fmt.Errorf("unknown tag %q", tag)
	}
	out := make([]float64, len(vec))
	copy(out, vec)
	return out, nil
}

// Infer embeds unseen text remotely.
func (c *Client) Infer(words []string) ([]float64, error) {
	return c.embed(strings.Join(words, " "))
}

func (c *Client) embed(text string) ([]float64, error) {
	type reqBody struct {
		Input  string `json:"input,omitempty"`
		Prompt string `json:"prompt,omitempty"`
		Model  string `json:"model"`
	}
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body := reqBody{Input: text, Prompt: text, Model: c.model}
		data, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					_ = resp.Body.Close()
					time.Sleep(time.Duration(secs) * time.Second)
				} else {
					_ = resp.Body.Close()
					time.Sleep(retryDelay(attempt))
				}
			} else {
				_ = resp.Body.Close()
				time.Sleep(retryDelay(attempt))
			}
			if attempt < c.maxRetries {
				continue
			}
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}

		if resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, err
		}
		// OpenAI-compatible response shape
		var openaiOut struct {
			Data []struct {
				Embedding []float64 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(payload, &openaiOut); err == nil {
			if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
				v := openaiOut.Data[0].Embedding
				if c.dimension == 0 {
					c.dimension = len(v)
				}
				return v, nil
			}
		}
		// Ollama-native shape: { "embedding": [...] }
		var ollamaOut struct {
			Embedding []float64 `json:"embedding"`
		}
		if err := json.Unmarshal(payload, &ollamaOut); err == nil {
			if len(ollamaOut.Embedding) > 0 {
				v := ollamaOut.Embedding
				if c.dimension == 0 {
					c.dimension = len(v)
				}
				return v, nil
			}
		}
		if attempt < c.maxRetries {
			time.Sleep(retryDelay(attempt))
			continue
		}
		return nil, errors.New("no embedding returned")
	}
	return nil, errors.New("no embedding returned")
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

type snapshot struct {
	Dimension int
	Tags      []string
	DocVecs   [][]float64
}

// Save persists the cached document vectors; the remote model itself is not
// ours to persist.
func (c *Client) Save(path string) error {
	if !c.built {
		return errors.New("nothing to save: embeddings not built")
	}
	tags := make([]string, 0, len(c.docVecs))
	for tag := range c.docVecs {
		tags = append(tags, tag)
	}
	vecs := make([][]float64, len(tags))
	for i, tag := range tags {
		vecs[i] = c.docVecs[tag]
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(snapshot{Dimension: c.dimension, Tags: tags, DocVecs: vecs}); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	return nil
}

// Load restores cached vectors written by Save.
func (c *Client) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	defer f.Close()
	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	c.dimension = snap.Dimension
	c.docVecs = make(map[string][]float64, len(snap.Tags))
	for i, tag := range snap.Tags {
		c.docVecs[tag] = snap.DocVecs[i]
	}
	c.built = true
	return nil
}
