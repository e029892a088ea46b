package login

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/internal/appsign"
	"github.com/z0z0r4/bilibili-api/logger"
)

const (
	qrWebGeneratePath = "/x/passport-login/web/qrcode/generate"
	qrWebPollPath     = "/x/passport-login/web/qrcode/poll"
	qrTVGeneratePath  = "/x/passport-tv-login/qrcode/auth_code"
	qrTVPollPath      = "/x/passport-tv-login/qrcode/poll"
)

// QRChannel selects which client the QR code logs in as.
type QRChannel string

const (
	ChannelWeb QRChannel = "web"
	ChannelTV  QRChannel = "tv"
)

// QRState is the state of a pending QR login.
type QRState string

const (
	// StateScan: the code has not been scanned yet.
	StateScan QRState = "scan"
	// StateConfirm: scanned, waiting for confirmation in the app. The TV
	// channel never reports this state.
	StateConfirm QRState = "confirm"
	// StateExpired: the code timed out; generate a new one.
	StateExpired QRState = "expired"
	// StateDone: login confirmed, credential available.
	StateDone QRState = "done"
)

// Inner status codes the poll endpoints use.
const (
	codeWebNotScanned   = 86101
	codeWebNotConfirmed = 86090
	codeWebExpired      = 86038
	codeTVNotConfirmed  = 86039
	codeTVExpired       = 86038
)

var (
	// ErrNoQRCode is returned when Poll or URL is used before Generate.
	ErrNoQRCode = errors.New("no QR code generated yet")
	// ErrNotDone is returned by Credential before the login completes.
	ErrNotDone = errors.New("QR login not completed yet")
)

// QRLogin drives a QR code login session: Generate produces the code,
// repeated Poll calls track scan/confirm progress, and Credential returns
// the result once Poll has reported StateDone.
type QRLogin struct {
	client     *client.Client
	channel    QRChannel
	qrURL      string
	qrKey      string // qrcode_key (web) or auth_code (tv)
	credential *Credential
}

// NewQRLogin creates a session for the given channel.
func NewQRLogin(c *client.Client, channel QRChannel) *QRLogin {
	return &QRLogin{client: c, channel: channel}
}

// HasQRCode reports whether Generate has produced a code.
func (q *QRLogin) HasQRCode() bool {
	return q.qrURL != ""
}

// Done reports whether the login has completed.
func (q *QRLogin) Done() bool {
	return q.credential != nil
}

// URL returns the content to encode into the QR image.
func (q *QRLogin) URL() (string, error) {
	if !q.HasQRCode() {
		return "", ErrNoQRCode
	}
	return q.qrURL, nil
}

// Key returns the server-issued key identifying this QR session.
func (q *QRLogin) Key() string {
	return q.qrKey
}

// Credential returns the issued credential after StateDone.
func (q *QRLogin) Credential() (*Credential, error) {
	if !q.Done() {
		return nil, ErrNotDone
	}
	return q.credential, nil
}

// Generate requests a fresh QR code, replacing any previous one.
func (q *QRLogin) Generate() error {
	if q.channel == ChannelTV {
		return q.generateTV()
	}
	return q.generateWeb()
}

func (q *QRLogin) generateWeb() error {
	resp, err := q.client.Get(q.client.PassportURL(qrWebGeneratePath), map[string]string{"source": "main-fe-header"}, client.RefererLogin)
	if err != nil {
		return err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return err
	}

	var j struct {
		Data struct {
			URL       string `json:"url"`
			QrcodeKey string `json:"qrcode_key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return fmt.Errorf("parse qrcode generate response: %w", err)
	}
	if j.Data.URL == "" || j.Data.QrcodeKey == "" {
		return errors.New("qrcode generate response missing url or qrcode_key")
	}
	q.qrURL, q.qrKey, q.credential = j.Data.URL, j.Data.QrcodeKey, nil
	logger.Log.Debug().Str("qrcode_key", logger.TruncateToken(q.qrKey)).Msg("web qrcode generated")
	return nil
}

func (q *QRLogin) generateTV() error {
	cfg := q.client.Config()
	form := url.Values{}
	form.Set("local_id", "0")
	form.Set("ts", strconv.FormatInt(time.Now().Unix(), 10))
	signed := appsign.Sign(form, cfg.AppKey, cfg.AppSec)

	resp, err := q.client.PostForm(q.client.PassportURL(qrTVGeneratePath), flatten(signed), client.RefererHome)
	if err != nil {
		return err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return err
	}

	var j struct {
		Data struct {
			URL      string `json:"url"`
			AuthCode string `json:"auth_code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return fmt.Errorf("parse tv auth_code response: %w", err)
	}
	if j.Data.URL == "" || j.Data.AuthCode == "" {
		return errors.New("tv auth_code response missing url or auth_code")
	}
	q.qrURL, q.qrKey, q.credential = j.Data.URL, j.Data.AuthCode, nil
	logger.Log.Debug().Str("auth_code", logger.TruncateToken(q.qrKey)).Msg("tv qrcode generated")
	return nil
}

// Poll asks the passport API for the current state of the QR session.
// After StateDone the call is idempotent and keeps returning StateDone.
// After StateExpired the session key is dead; call Generate again.
func (q *QRLogin) Poll() (QRState, error) {
	if q.Done() {
		return StateDone, nil
	}
	if !q.HasQRCode() {
		return "", ErrNoQRCode
	}
	if q.channel == ChannelTV {
		return q.pollTV()
	}
	return q.pollWeb()
}

func (q *QRLogin) pollWeb() (QRState, error) {
	resp, err := q.client.Get(q.client.PassportURL(qrWebPollPath), map[string]string{
		"qrcode_key": q.qrKey,
		"source":     "main-fe-header",
	}, client.RefererLogin)
	if err != nil {
		return "", err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return "", err
	}

	// The web poll endpoint always answers with envelope code 0; the actual
	// state lives in a second code inside data.
	var j struct {
		Data struct {
			Code         int    `json:"code"`
			Message      string `json:"message"`
			URL          string `json:"url"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return "", fmt.Errorf("parse qrcode poll response: %w", err)
	}

	switch j.Data.Code {
	case codeWebNotScanned:
		return StateScan, nil
	case codeWebNotConfirmed:
		return StateConfirm, nil
	case codeWebExpired:
		return StateExpired, nil
	case 0:
		cred := credentialFromCrossDomainURL(j.Data.URL, j.Data.RefreshToken)
		cred.merge(credentialFromCookies(resp.Cookies(), j.Data.RefreshToken))
		if !cred.IsComplete() {
			return "", errors.New("qr login confirmed but session cookies are incomplete")
		}
		q.credential = cred
		logger.Log.Info().Str("DedeUserID", cred.DedeUserID).Msg("web qr login done")
		return StateDone, nil
	default:
		return "", fmt.Errorf("qrcode poll status %d: %s", j.Data.Code, j.Data.Message)
	}
}

func (q *QRLogin) pollTV() (QRState, error) {
	cfg := q.client.Config()
	form := url.Values{}
	form.Set("auth_code", q.qrKey)
	form.Set("local_id", "0")
	form.Set("ts", strconv.FormatInt(time.Now().Unix(), 10))
	signed := appsign.Sign(form, cfg.AppKey, cfg.AppSec)

	resp, err := q.client.PostForm(q.client.PassportURL(qrTVPollPath), flatten(signed), client.RefererHome)
	if err != nil {
		return "", err
	}

	// The TV poll endpoint reports progress through the envelope code
	// itself, so pending states come back as APIError values.
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case codeTVNotConfirmed:
				return StateScan, nil
			case codeTVExpired:
				return StateExpired, nil
			}
		}
		return "", err
	}

	var j struct {
		Data struct {
			RefreshToken string `json:"refresh_token"`
			CookieInfo   struct {
				Cookies []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"cookies"`
			} `json:"cookie_info"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return "", fmt.Errorf("parse tv poll response: %w", err)
	}

	cred := &Credential{AcTimeValue: j.Data.RefreshToken}
	for _, ck := range j.Data.CookieInfo.Cookies {
		switch ck.Name {
		case "SESSDATA":
			cred.SESSDATA = ck.Value
		case "bili_jct":
			cred.BiliJct = ck.Value
		case "DedeUserID":
			cred.DedeUserID = ck.Value
		}
	}
	if !cred.IsComplete() {
		return "", errors.New("tv qr login confirmed but cookie_info is incomplete")
	}
	q.credential = cred
	logger.Log.Info().Str("DedeUserID", cred.DedeUserID).Msg("tv qr login done")
	return StateDone, nil
}

func flatten(form url.Values) map[string]string {
	out := make(map[string]string, len(form))
	for k := range form {
		out[k] = form.Get(k)
	}
	return out
}
