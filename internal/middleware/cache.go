package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-calendar/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
// A body larger than limit is forwarded but not kept, so it is never cached.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	total := 4 + 4 + len(hdrJSON) + len(body)
	out := make([]byte, total)
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	var hdr http.Header
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	} else {
		hdr = make(http.Header)
	}
	body = bs[8+hlen:]
	return status, hdr, body, true
}

// ResponseCache caches successful GET responses in Redis. Entries of one
// venue share the key prefix "<prefix>:venue:<id>:" so that InvalidateVenue
// can drop all of them after a write, and the next read goes to the
// database again. Entry keys also carry the venue generation, a counter that
// InvalidateVenue bumps, so a read that was running during a write stores
// its result under a generation nobody reads any more.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewResponseCache returns a cache over rdb. A nil client or a disabled
// config yields a cache whose middleware passes every request through.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// venuePrefix is the key namespace of the cached entries of one venue.
func (rc *ResponseCache) venuePrefix(venueID uint64) string {
	return fmt.Sprintf("%s:venue:%d:", rc.cfg.Prefix, venueID)
}

// genKey holds the generation counter of one venue. It lives outside
// venuePrefix so invalidation never deletes it.
func (rc *ResponseCache) genKey(venueID uint64) string {
	return fmt.Sprintf("%s:venue-gen:%d", rc.cfg.Prefix, venueID)
}

// generation returns the current generation of venueID, 0 when unset.
func (rc *ResponseCache) generation(ctx context.Context, venueID uint64) (int64, error) {
	n, err := rc.rdb.Get(ctx, rc.genKey(venueID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// venueOf reads the venue from the :id path parameter or the venue_id query
// parameter. Requests without a valid one are not cached.
func venueOf(c echo.Context) (uint64, bool) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.QueryParam("venue_id")
	}
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	return id, err == nil && id > 0
}

// key derives the entry key from the canonical venue id, so "012" and "12"
// share one namespace.
func (rc *ResponseCache) key(c echo.Context, venueID uint64, gen int64) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + " " + c.Path() + "?" + r.URL.Query().Encode()))
	return fmt.Sprintf("%s%d:%x", rc.venuePrefix(venueID), gen, sum[:])
}

// Middleware serves cached responses and stores 200 responses on a miss.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return passThrough
	}
	maxBody := int64(rc.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			venueID, ok := venueOf(c)
			if !ok {
				return next(c)
			}
			ctx := c.Request().Context()
			gen, err := rc.generation(ctx, venueID)
			if err != nil {
				c.Logger().Warnf("cache: generation venue=%d: %v", venueID, err)
				return next(c)
			}
			key := rc.key(c, venueID, gen)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						// Echo sets Content-Length itself
						if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				if err := rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
					c.Logger().Warnf("cache: store %s: %v", key, err)
				}
			}
			return nil
		}
	}
}

// InvalidateVenue deletes every cached response of venueID and bumps its
// generation. It is a no-op when the cache is disabled.
func (rc *ResponseCache) InvalidateVenue(ctx context.Context, venueID uint64) error {
	if !rc.enabled() {
		return nil
	}
	if err := rc.rdb.Incr(ctx, rc.genKey(venueID)).Err(); err != nil {
		return fmt.Errorf("bump generation venue=%d: %w", venueID, err)
	}
	pattern := rc.venuePrefix(venueID) + "*"
	iter := rc.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return rc.rdb.Del(ctx, keys...).Err()
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
