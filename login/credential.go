// Package login implements the Bilibili passport login flows: password,
// SMS code, and QR code (web and TV channels). Each flow ends with a
// Credential holding the session cookies the rest of the API consumes.
package login

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/z0z0r4/bilibili-api/utils"
)

var (
	// ErrGeetestUndone is returned when a flow requires a completed
	// Geetest challenge and the supplied result is incomplete.
	ErrGeetestUndone = errors.New("geetest challenge not completed")

	// ErrVerifyPhoneRequired means the account needs SMS verification;
	// the caller should switch to the SMS flow.
	ErrVerifyPhoneRequired = errors.New("account requires phone verification, use the SMS login flow")

	// ErrVerifyQRCodeRequired means the SMS flow was rejected and the
	// caller should switch to the QR flow.
	ErrVerifyQRCodeRequired = errors.New("account requires extra verification, use the QR code login flow")
)

// Credential is the set of cookies issued by a successful login, plus the
// refresh token (ac_time_value) needed to renew them later.
type Credential struct {
	SESSDATA    string `json:"SESSDATA"`
	BiliJct     string `json:"bili_jct"`
	DedeUserID  string `json:"DedeUserID"`
	AcTimeValue string `json:"ac_time_value"`
}

// IsComplete reports whether all three session cookies are present.
func (c *Credential) IsComplete() bool {
	return c != nil && c.SESSDATA != "" && c.BiliJct != "" && c.DedeUserID != ""
}

// CookieString renders the credential as a Cookie request header value.
func (c *Credential) CookieString() string {
	parts := []string{
		"SESSDATA=" + c.SESSDATA,
		"bili_jct=" + c.BiliJct,
		"DedeUserID=" + c.DedeUserID,
	}
	return strings.Join(parts, "; ")
}

// Save writes the credential to path as JSON. Session cookies grant full
// account access, hence the restrictive mode.
func (c *Credential) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadCredential reads a credential previously written by Save.
func LoadCredential(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse credential %s: %w", path, err)
	}
	return &c, nil
}

// credentialFromCookies builds a credential from response Set-Cookie values.
// The password and web QR flows deliver cookies this way.
func credentialFromCookies(cookies []*http.Cookie, refreshToken string) *Credential {
	c := &Credential{AcTimeValue: refreshToken}
	for _, ck := range cookies {
		switch ck.Name {
		case "SESSDATA":
			c.SESSDATA = ck.Value
		case "bili_jct":
			c.BiliJct = ck.Value
		case "DedeUserID":
			c.DedeUserID = ck.Value
		}
	}
	return c
}

// credentialFromCrossDomainURL builds a credential from the confirm URL the
// SMS and web QR flows return, e.g.
// https://passport.biligame.com/crossDomain?DedeUserID=..&SESSDATA=..&bili_jct=..
func credentialFromCrossDomainURL(rawURL, refreshToken string) *Credential {
	return &Credential{
		SESSDATA:    utils.CrossDomainValue(rawURL, "SESSDATA"),
		BiliJct:     utils.CrossDomainValue(rawURL, "bili_jct"),
		DedeUserID:  utils.CrossDomainValue(rawURL, "DedeUserID"),
		AcTimeValue: refreshToken,
	}
}

// merge fills empty fields of c from other. The web QR flow reports the
// credential both in the confirm URL and as Set-Cookie headers, and either
// side may be partial.
func (c *Credential) merge(other *Credential) {
	if c.SESSDATA == "" {
		c.SESSDATA = other.SESSDATA
	}
	if c.BiliJct == "" {
		c.BiliJct = other.BiliJct
	}
	if c.DedeUserID == "" {
		c.DedeUserID = other.DedeUserID
	}
	if c.AcTimeValue == "" {
		c.AcTimeValue = other.AcTimeValue
	}
}
