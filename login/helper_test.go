package login

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/logger"
)

func init() {
	logger.Init("error", false)
}

// newTestClient points a client at a local passport stand-in.
func newTestClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	cfg := &config.Config{
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
		AppKey:    config.DefaultAppKey,
		AppSec:    config.DefaultAppSec,
	}
	c := client.New(cfg)
	c.SetBaseURL(srv.URL, srv.URL)
	return c
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func doneGeetest() *GeetestResult {
	return &GeetestResult{
		Token:     "tok",
		Challenge: "chal",
		Validate:  "valid",
		Seccode:   "valid|jordan",
	}
}
