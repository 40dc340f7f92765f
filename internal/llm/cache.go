package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/raine/stock-metadata/internal/storage"
	"github.com/rs/zerolog/log"
)

// ResponseCache stores raw model responses keyed by request hash.
type ResponseCache interface {
	GetResponse(hash string) (*storage.CachedResponse, error)
	SetResponse(hash string, entry *storage.CachedResponse) error
}

// CachedClient answers repeated (prompt, payload) pairs from the cache.
type CachedClient struct {
	inner Client
	cache ResponseCache
}

// NewCachedClient creates a cached client.
func NewCachedClient(inner Client, cache ResponseCache) *CachedClient {
	return &CachedClient{inner: inner, cache: cache}
}

// hashRequest hashes the prompt, MIME type and payload. Each part is length
// prefixed to prevent boundary collisions.
func hashRequest(req Request) string {
	h := sha256.New()
	for _, part := range [][]byte{
		[]byte(req.Prompt),
		[]byte(req.Payload.MIMEType),
		[]byte(req.Payload.Text),
		req.Payload.Data,
	} {
		binary.Write(h, binary.LittleEndian, int64(len(part)))
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Invoke implements Client with caching.
func (c *CachedClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	hash := hashRequest(req)

	if c.cache != nil {
		cached, err := c.cache.GetResponse(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check response cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Str("file", req.FileName).Msg("response cache hit")
			return &Response{Text: cached.Text, Cached: true}, nil
		}
	}

	resp, err := c.inner.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		entry := &storage.CachedResponse{Text: resp.Text, InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
		if err := c.cache.SetResponse(hash, entry); err != nil {
			log.Warn().Err(err).Msg("failed to cache model response")
		}
	}

	return resp, nil
}
