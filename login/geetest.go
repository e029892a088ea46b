package login

import (
	"encoding/json"
	"fmt"

	"github.com/z0z0r4/bilibili-api/client"
)

const captchaPath = "/x/passport-login/captcha"

// GeetestResult carries a completed Geetest challenge. Solving the
// challenge is out of scope here; an external solver (or a human in a
// browser) produces validate and seccode from the parameters returned by
// FetchCaptcha.
type GeetestResult struct {
	Token     string // token issued together with the challenge
	Challenge string
	Validate  string
	Seccode   string
}

// Done reports whether the challenge has actually been solved.
func (g *GeetestResult) Done() bool {
	return g != nil && g.Token != "" && g.Challenge != "" && g.Validate != "" && g.Seccode != ""
}

// CaptchaChallenge is the parameter set an external Geetest solver needs.
type CaptchaChallenge struct {
	Token     string
	GT        string
	Challenge string
}

// FetchCaptcha requests fresh Geetest challenge parameters from the
// passport API.
func FetchCaptcha(c *client.Client) (*CaptchaChallenge, error) {
	resp, err := c.Get(c.PassportURL(captchaPath), map[string]string{"source": "main_web"}, client.RefererLogin)
	if err != nil {
		return nil, err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return nil, err
	}

	var j struct {
		Data struct {
			Token   string `json:"token"`
			Geetest struct {
				GT        string `json:"gt"`
				Challenge string `json:"challenge"`
			} `json:"geetest"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return nil, fmt.Errorf("parse captcha response: %w", err)
	}
	return &CaptchaChallenge{
		Token:     j.Data.Token,
		GT:        j.Data.Geetest.GT,
		Challenge: j.Data.Geetest.Challenge,
	}, nil
}
