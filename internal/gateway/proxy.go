package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/gin-gonic/gin"
)

// maxUpstreamBody caps what is read back from the API.
const maxUpstreamBody = 10 << 20

var failureMessages = map[string]string{
	http.MethodGet:    "Failed to fetch from API",
	http.MethodPost:   "Failed to post to API",
	http.MethodPut:    "Failed to update API",
	http.MethodDelete: "Failed to delete from API",
}

var errNotJSON = errors.New("upstream body is not json")

// FailureMessage is the fixed error text answered for a failed upstream call.
func FailureMessage(method string) string {
	if msg, ok := failureMessages[method]; ok {
		return msg
	}
	return "Failed to reach API"
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Proxy struct {
	baseURL string
	client  HTTPDoer
	prom    *observability.Prom
}

// NewProxy forwards /api/<path> to <baseURL>/api/v1/<path>. A nil client
// gets a 30s timeout.
func NewProxy(baseURL string, client HTTPDoer, prom *observability.Prom) *Proxy {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Proxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		prom:    prom,
	}
}

func (p *Proxy) target(path, rawQuery string) string {
	u := p.baseURL + "/api/v1/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// Handle is mounted on GET, POST, PUT and DELETE /api/*path.
func (p *Proxy) Handle(ctx *gin.Context) {
	method := ctx.Request.Method

	var body []byte
	if method == http.MethodPost || method == http.MethodPut {
		b, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": "Could not read request body"}})
			return
		}
		if len(bytes.TrimSpace(b)) > 0 && !json.Valid(b) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": "Request body must be valid JSON"}})
			return
		}
		body = b
	}

	start := time.Now()
	status, respBody, err := p.forward(ctx.Request.Context(), method, p.target(ctx.Param("path"), ctx.Request.URL.RawQuery), ctx.GetHeader("Authorization"), body)
	elapsed := time.Since(start)

	if err != nil {
		p.prom.ObserveUpstream(method, "error", elapsed)
		slog.Default().ErrorContext(ctx.Request.Context(), "gateway.upstream_failed",
			"method", method,
			"path", ctx.Param("path"),
			"err", err,
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": FailureMessage(method)})
		return
	}

	p.prom.ObserveUpstream(method, strconv.Itoa(status), elapsed)
	ctx.Data(status, "application/json", respBody)
}

func (p *Proxy) forward(ctx context.Context, method, url, authorization string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("upstream %s: %w", method, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read upstream body: %w", err)
	}
	if resp.StatusCode == http.StatusNoContent && len(bytes.TrimSpace(b)) == 0 {
		return resp.StatusCode, nil, nil
	}
	if !json.Valid(b) {
		return 0, nil, fmt.Errorf("%w (status %d)", errNotJSON, resp.StatusCode)
	}

	return resp.StatusCode, b, nil
}
