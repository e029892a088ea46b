// Package appsign computes the app-level signature required by the TV login
// endpoints. Web endpoints do not use it.
package appsign

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Sign adds appkey and sign to the given form values and returns the signed
// form. The signature is md5 of the alphabetically sorted urlencoded query
// concatenated with the app secret.
func Sign(form url.Values, appKey, appSec string) url.Values {
	signed := url.Values{}
	for k, vs := range form {
		for _, v := range vs {
			signed.Add(k, v)
		}
	}
	signed.Set("appkey", appKey)

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(signed.Get(k)))
	}
	query := strings.Join(parts, "&")

	signed.Set("sign", fmt.Sprintf("%x", md5.Sum([]byte(query+appSec))))
	return signed
}
