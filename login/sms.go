package login

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/logger"
)

const (
	smsSendPath  = "/x/passport-sms/web/sms/send"
	smsLoginPath = "/x/passport-login/web/login/sms"
)

// ErrUnknownRegion is returned when a phone region cannot be resolved
// against the embedded country table.
var ErrUnknownRegion = errors.New("unknown phone region name or dialing code")

// PhoneNumber is a phone number with its resolved region.
type PhoneNumber struct {
	Number string
	Code   int // international dialing code, e.g. 86
	ID     int // Bilibili region id
}

// NewPhoneNumber builds a PhoneNumber. region is either a region name from
// the country table ("中国大陆") or a dialing code ("+86" / "86"). Dashes in
// the number are stripped.
func NewPhoneNumber(number, region string) (*PhoneNumber, error) {
	number = strings.ReplaceAll(number, "-", "")

	var code int
	if HaveCountry(region) {
		code = CodeByCountry(region)
	} else {
		n, err := strconv.Atoi(strings.TrimPrefix(region, "+"))
		if err != nil || !HaveCode(region) {
			return nil, ErrUnknownRegion
		}
		code = n
	}
	return &PhoneNumber{
		Number: number,
		Code:   code,
		ID:     IDByCode(code),
	}, nil
}

func (p *PhoneNumber) String() string {
	return fmt.Sprintf("+%d %s", p.Code, p.Number)
}

// SendSMSCode asks the passport API to text a login code to the phone.
// Requires a completed Geetest challenge. The returned captcha key must be
// passed to LoginWithSMS together with the received code.
func SendSMSCode(c *client.Client, phone *PhoneNumber, geetest *GeetestResult) (string, error) {
	if !geetest.Done() {
		return "", ErrGeetestUndone
	}

	form := map[string]string{
		"source":    "main-fe-header",
		"tel":       phone.Number,
		"cid":       strconv.Itoa(phone.Code),
		"validate":  geetest.Validate,
		"token":     geetest.Token,
		"seccode":   geetest.Seccode,
		"challenge": geetest.Challenge,
	}
	resp, err := c.PostForm(c.PassportURL(smsSendPath), form, client.RefererHome)
	if err != nil {
		return "", err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return "", err
	}

	var j struct {
		Data struct {
			CaptchaKey string `json:"captcha_key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return "", fmt.Errorf("parse sms send response: %w", err)
	}
	if j.Data.CaptchaKey == "" {
		return "", errors.New("sms send response missing captcha_key")
	}
	logger.Log.Info().Str("phone", phone.String()).Msg("sms code sent")
	return j.Data.CaptchaKey, nil
}

// LoginWithSMS exchanges a received SMS code for a credential. captchaKey is
// the value SendSMSCode returned for the same phone.
func LoginWithSMS(c *client.Client, phone *PhoneNumber, code, captchaKey string) (*Credential, error) {
	form := map[string]string{
		"tel":         phone.Number,
		"cid":         strconv.Itoa(phone.Code),
		"code":        code,
		"source":      "main_web",
		"captcha_key": captchaKey,
		"keep":        "true",
	}
	resp, err := c.PostForm(c.PassportURL(smsLoginPath), form, client.RefererHome)
	if err != nil {
		return nil, err
	}
	if err := client.CheckEnvelope(resp.Body()); err != nil {
		return nil, err
	}

	var j struct {
		Data struct {
			Status       int    `json:"status"`
			URL          string `json:"url"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return nil, fmt.Errorf("parse sms login response: %w", err)
	}
	// Status 5 means the account is flagged and must confirm via QR scan.
	if j.Data.Status == 5 {
		return nil, ErrVerifyQRCodeRequired
	}

	cred := credentialFromCrossDomainURL(j.Data.URL, j.Data.RefreshToken)
	cred.merge(credentialFromCookies(resp.Cookies(), j.Data.RefreshToken))
	if !cred.IsComplete() {
		return nil, errors.New("sms login succeeded but session cookies are incomplete")
	}
	logger.Log.Info().
		Str("DedeUserID", cred.DedeUserID).
		Str("SESSDATA", logger.TruncateToken(cred.SESSDATA)).
		Msg("sms login done")
	return cred, nil
}
