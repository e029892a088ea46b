package login

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/z0z0r4/bilibili-api/client"
)

const navPath = "/x/web-interface/nav"

// CheckCredential asks the nav endpoint whether a credential still holds a
// live session. The endpoint answers for anonymous callers too, with
// isLogin false, so a transport-level error here is a real failure rather
// than an expired session.
func CheckCredential(c *client.Client, cred *Credential) (bool, error) {
	if !cred.IsComplete() {
		return false, errors.New("credential is incomplete")
	}
	cookie := cred.CookieString() + "; buvid3=" + c.Buvid()
	resp, err := c.GetWithCookie(c.APIURL(navPath), nil, client.RefererHome, cookie)
	if err != nil {
		return false, err
	}

	// The nav endpoint returns code -101 for logged-out callers; that is a
	// valid "no" answer, not an envelope failure.
	var j struct {
		Code int `json:"code"`
		Data struct {
			IsLogin bool `json:"isLogin"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &j); err != nil {
		return false, fmt.Errorf("parse nav response: %w", err)
	}
	return j.Data.IsLogin, nil
}
