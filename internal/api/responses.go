package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// responseOptions shape the headers of one JSON response.
type responseOptions struct {
	// cacheSeconds sets Cache-Control max-age; negative means no-cache,
	// zero leaves the header unset.
	cacheSeconds int
	// noStore sets Cache-Control: no-store.
	noStore bool
	// etag adds an ETag of hex(SHA-256(body)).
	etag bool
	// sign adds X-Signature when a signer is configured.
	sign bool
}

// writeJSON marshals body once and writes it with the negotiated headers,
// so the ETag and signature always cover the exact bytes sent.
func (h *Handler) writeJSON(c *gin.Context, status int, body any, opts responseOptions) {
	payload, err := json.Marshal(body)
	if err != nil {
		h.internalError(c, fmt.Errorf("marshal response: %w", err))
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "application/json; charset=utf-8")

	switch {
	case opts.noStore:
		header.Set("Cache-Control", "no-store")
	case opts.cacheSeconds < 0:
		header.Set("Cache-Control", "no-cache")
	case opts.cacheSeconds > 0:
		header.Set("Cache-Control", "public, max-age="+strconv.Itoa(opts.cacheSeconds))
	}

	if opts.etag {
		sum := sha256.Sum256(payload)
		header.Set("ETag", `"`+hex.EncodeToString(sum[:])+`"`)
	}

	if opts.sign && h.signer != nil {
		header.Set("X-Signature", h.signer.Sign(payload))
	}

	c.Data(status, "application/json; charset=utf-8", payload)
}

// clientError answers a 4xx with the standard error envelope.
func (h *Handler) clientError(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// internalError answers a 500 without exposing internals.
func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
}

// queryFloat parses a float query parameter with a default.
func queryFloat(c *gin.Context, name string, def float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return val, nil
}

// queryInt parses an int query parameter with a default.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return val, nil
}
