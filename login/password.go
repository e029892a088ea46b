package login

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/logger"
)

const (
	webKeyPath        = "/x/passport-login/web/key"
	passwordLoginPath = "/x/passport-login/web/login"
)

// fetchWebKey requests the RSA public key and the salt hash the password
// must be prefixed with before encryption. Both rotate server-side.
func fetchWebKey(c *client.Client) (hash, key string, err error) {
	resp, err := c.Get(c.PassportURL(webKeyPath), nil, client.RefererLogin)
	if err != nil {
		return "", "", err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return "", "", err
	}

	var j struct {
		Data struct {
			Hash string `json:"hash"`
			Key  string `json:"key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return "", "", fmt.Errorf("parse web key response: %w", err)
	}
	if j.Data.Hash == "" || j.Data.Key == "" {
		return "", "", errors.New("web key response missing hash or key")
	}
	return j.Data.Hash, j.Data.Key, nil
}

// EncryptPassword produces the password field the login endpoint expects:
// base64(RSA-PKCS1v15(hash + password)) with the PEM public key served by
// the web key endpoint.
func EncryptPassword(hash, pemKey, password string) (string, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return "", errors.New("invalid PEM public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return "", errors.New("public key is not RSA")
	}
	enc, err := rsa.EncryptPKCS1v15(rand.Reader, rsaPub, []byte(hash+password))
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(enc), nil
}

// LoginWithPassword performs the password login flow. The Geetest challenge
// must already be solved; accounts flagged for phone verification get
// ErrVerifyPhoneRequired and have to use the SMS flow instead.
func LoginWithPassword(c *client.Client, username, password string, geetest *GeetestResult) (*Credential, error) {
	if !geetest.Done() {
		return nil, ErrGeetestUndone
	}

	hash, key, err := fetchWebKey(c)
	if err != nil {
		return nil, err
	}
	encrypted, err := EncryptPassword(hash, key, password)
	if err != nil {
		return nil, err
	}

	form := map[string]string{
		"username":  username,
		"password":  encrypted,
		"keep":      "true",
		"token":     geetest.Token,
		"challenge": geetest.Challenge,
		"validate":  geetest.Validate,
		"seccode":   geetest.Seccode,
	}
	resp, err := c.PostForm(c.PassportURL(passwordLoginPath), form, client.RefererLogin)
	if err != nil {
		return nil, err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return nil, err
	}

	var j struct {
		Data struct {
			Status       int    `json:"status"`
			Message      string `json:"message"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return nil, fmt.Errorf("parse login response: %w", err)
	}
	// Status 1 and 2 both mean the account is gated behind SMS verification.
	if j.Data.Status == 1 || j.Data.Status == 2 {
		return nil, ErrVerifyPhoneRequired
	}

	cred := credentialFromCookies(resp.Cookies(), j.Data.RefreshToken)
	if !cred.IsComplete() {
		return nil, errors.New("login succeeded but session cookies are incomplete")
	}
	logger.Log.Info().
		Str("DedeUserID", cred.DedeUserID).
		Str("SESSDATA", logger.TruncateToken(cred.SESSDATA)).
		Msg("password login done")
	return cred, nil
}
