package appsign

import (
	"net/url"
	"testing"
)

const (
	testAppKey = "4409e2ce8ffd12b8"
	testAppSec = "59b43e04ad6965f34319062b478f83dd"
)

func TestSign(t *testing.T) {
	form := url.Values{}
	form.Set("local_id", "0")
	form.Set("ts", "1700000000")

	signed := Sign(form, testAppKey, testAppSec)

	if got := signed.Get("appkey"); got != testAppKey {
		t.Errorf("appkey = %q, want %q", got, testAppKey)
	}
	if got := signed.Get("sign"); got != "ebb086c9f52ae7393619a89bdc320e45" {
		t.Errorf("sign = %q, want ebb086c9f52ae7393619a89bdc320e45", got)
	}
}

func TestSignWithAuthCode(t *testing.T) {
	form := url.Values{}
	form.Set("auth_code", "abc123")
	form.Set("local_id", "0")
	form.Set("ts", "1700000000")

	signed := Sign(form, testAppKey, testAppSec)

	if got := signed.Get("sign"); got != "160fbbdbd8c8f9fbab54156266d6c054" {
		t.Errorf("sign = %q, want 160fbbdbd8c8f9fbab54156266d6c054", got)
	}
}

func TestSignDoesNotMutateInput(t *testing.T) {
	form := url.Values{}
	form.Set("ts", "1700000000")

	Sign(form, testAppKey, testAppSec)

	if form.Get("appkey") != "" || form.Get("sign") != "" {
		t.Error("Sign mutated the input form")
	}
}

func TestSignDeterministic(t *testing.T) {
	form := url.Values{}
	form.Set("local_id", "0")
	form.Set("ts", "1700000000")

	a := Sign(form, testAppKey, testAppSec).Get("sign")
	b := Sign(form, testAppKey, testAppSec).Get("sign")
	if a != b {
		t.Errorf("sign not deterministic: %q vs %q", a, b)
	}
}
