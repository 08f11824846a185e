package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// An in-progress lock outlives any sane handler run; finishing the
	// handler replaces it with the recorded response.
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute
	storeTimeout       = 2 * time.Second
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// respRecorder tees the response body so a finished request can be replayed
// byte for byte.
type respRecorder struct {
	w    http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}

func (r *respRecorder) WriteHeader(code int) {
	r.code = code
	r.w.WriteHeader(code)
}

func headerErr(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// Idempotency guards the mutating loan routes (create, confirm, pay, pledge,
// increase). The dedup key scopes Ax-Request-Id to method, route and the
// authenticated uid. A replay of a finished request gets the recorded
// response back; a concurrent duplicate or a reused id with a different body
// gets a conflict. Must run after RequireUser.
func Idempotency(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// Reads are naturally idempotent.
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get("Ax-Request-Id"))
			switch {
			case reqID == "":
				return headerErr(c, http.StatusBadRequest, "missing Ax-Request-Id")
			case !validReqID(reqID):
				return headerErr(c, http.StatusBadRequest, "invalid Ax-Request-Id format")
			}

			reqAt, err := parseAxRequestAt(req.Header.Get("Ax-Request-At"))
			if err != nil {
				return headerErr(c, http.StatusBadRequest, err.Error())
			}
			if skew := nowUTC().Sub(reqAt); skew > maxClockSkew || skew < -maxClockSkew {
				return headerErr(c, http.StatusBadRequest, "Ax-Request-At too skewed")
			}

			uid := UID(c)
			if uid == "" {
				return headerErr(c, http.StatusUnauthorized, "no authenticated user")
			}

			// The body is consumed for hashing; hand the handler a rewound copy.
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)

			key := buildKey(req.Method, c.Path(), uid, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			claimed, err := provisionalSet(ctx, rdb, key, idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			if err != nil {
				return headerErr(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !claimed {
				return replayOrConflict(ctx, c, rdb, key, bhash, log)
			}

			rec := &respRecorder{w: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// Stored off the request context: the recording must land even
			// when the client disconnects mid-response.
			if err := saveFinal(context.Background(), rdb, key, idempEntry{
				Code:        rec.code,
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}, ttl); err != nil {
				log.Warn("idempotency: record response failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

func replayOrConflict(ctx context.Context, c echo.Context, rdb *redis.Client, key, bhash string, log *zap.Logger) error {
	cur, err := loadEntry(ctx, rdb, key)
	if err != nil {
		log.Warn("idempotency: load entry failed", zap.String("key", key), zap.Error(err))
	}
	if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
		return headerErr(c, http.StatusConflict, "Ax-Request-Id reused with different body")
	}
	if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	}
	return headerErr(c, http.StatusConflict, "request is already in progress")
}
