// Package client wraps a resty HTTP client with the defaults the Bilibili
// passport API expects: browser User-Agent, referer headers and a buvid3
// device cookie. All login flows share one Client.
package client

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/logger"
	"github.com/z0z0r4/bilibili-api/utils"
)

const (
	PassportBase = "https://passport.bilibili.com"
	APIBase      = "https://api.bilibili.com"

	RefererLogin = "https://passport.bilibili.com/login"
	RefererHome  = "https://www.bilibili.com"
)

// Client is the HTTP client shared by all passport flows.
type Client struct {
	http         *resty.Client
	config       *config.Config
	buvid        string
	userAgent    string
	passportBase string
	apiBase      string
}

// New builds a client from the given config.
func New(cfg *config.Config) *Client {
	buvid := utils.GenerateBuvid()

	http_ := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json, text/plain, */*").
		SetCookie(&http.Cookie{Name: "buvid3", Value: buvid})

	if cfg.ProxyURL != "" {
		http_.SetProxy(cfg.ProxyURL)
	}

	return &Client{
		http:         http_,
		config:       cfg,
		buvid:        buvid,
		userAgent:    cfg.UserAgent,
		passportBase: PassportBase,
		apiBase:      APIBase,
	}
}

// PassportURL joins a path onto the passport host.
func (c *Client) PassportURL(path string) string {
	return c.passportBase + path
}

// APIURL joins a path onto the main API host.
func (c *Client) APIURL(path string) string {
	return c.apiBase + path
}

// SetBaseURL points the client at different hosts. Tests use this to run
// the flows against a local server.
func (c *Client) SetBaseURL(passport, api string) {
	c.passportBase = passport
	c.apiBase = api
}

// Config returns the config the client was built with.
func (c *Client) Config() *config.Config {
	return c.config
}

// Buvid returns the device cookie value sent with every request.
func (c *Client) Buvid() string {
	return c.buvid
}

// UserAgent returns the User-Agent in use.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Get performs a GET with passport headers.
func (c *Client) Get(url string, query map[string]string, referer string) (*resty.Response, error) {
	logger.Log.Debug().Str("url", url).Msg("GET")
	resp, err := c.http.R().
		SetQueryParams(query).
		SetHeader("Referer", referer).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp, nil
}

// GetWithCookie performs a GET carrying an explicit Cookie header, for
// endpoints that authenticate with an already issued credential.
func (c *Client) GetWithCookie(url string, query map[string]string, referer, cookie string) (*resty.Response, error) {
	logger.Log.Debug().Str("url", url).Msg("GET")
	resp, err := c.http.R().
		SetQueryParams(query).
		SetHeader("Referer", referer).
		SetHeader("Cookie", cookie).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp, nil
}

// PostForm performs an urlencoded POST with passport headers.
func (c *Client) PostForm(url string, form map[string]string, referer string) (*resty.Response, error) {
	logger.Log.Debug().Str("url", url).Msg("POST")
	resp, err := c.http.R().
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Referer", referer).
		SetHeader("Origin", RefererHome).
		SetFormData(form).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp, nil
}

// APIError is a non-zero code in the standard response envelope.
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bilibili api error %d: %s", e.Code, e.Message)
}

// CheckEnvelope validates the {code, message, data} envelope every passport
// endpoint wraps its payload in. A non-zero code surfaces the remote message.
// Some endpoints carry a second status code inside data; callers handle that
// themselves after the envelope passes.
func CheckEnvelope(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("invalid json response: %s", logger.TruncateToken(string(body)))
	}
	code := gjson.GetBytes(body, "code")
	if !code.Exists() {
		return fmt.Errorf("response missing code field")
	}
	if code.Int() != 0 {
		return &APIError{Code: code.Int(), Message: gjson.GetBytes(body, "message").String()}
	}
	return nil
}
