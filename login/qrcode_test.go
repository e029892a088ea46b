package login

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestQRLoginBeforeGenerate(t *testing.T) {
	q := NewQRLogin(nil, ChannelWeb)
	if q.HasQRCode() {
		t.Error("HasQRCode() = true before Generate")
	}
	if _, err := q.URL(); !errors.Is(err, ErrNoQRCode) {
		t.Errorf("URL() err = %v, want ErrNoQRCode", err)
	}
	if _, err := q.Poll(); !errors.Is(err, ErrNoQRCode) {
		t.Errorf("Poll() err = %v, want ErrNoQRCode", err)
	}
	if _, err := q.Credential(); !errors.Is(err, ErrNotDone) {
		t.Errorf("Credential() err = %v, want ErrNotDone", err)
	}
}

func TestQRLoginWeb(t *testing.T) {
	// The poll endpoint walks through not-scanned, scanned and confirmed on
	// successive requests.
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/x/passport-login/web/qrcode/generate", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("source"); got != "main-fe-header" {
			t.Errorf("source = %q", got)
		}
		writeJSON(w, map[string]any{
			"code": 0,
			"data": map[string]string{
				"url":        "https://passport.bilibili.com/h5-app/passport/login/scan?navhide=1&qrcode_key=qk",
				"qrcode_key": "qk",
			},
		})
	})
	mux.HandleFunc("/x/passport-login/web/qrcode/poll", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("qrcode_key"); got != "qk" {
			t.Errorf("qrcode_key = %q", got)
		}
		switch polls.Add(1) {
		case 1:
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"code": 86101}})
		case 2:
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"code": 86090}})
		default:
			http.SetCookie(w, &http.Cookie{Name: "SESSDATA", Value: "sess"})
			http.SetCookie(w, &http.Cookie{Name: "bili_jct", Value: "jct"})
			http.SetCookie(w, &http.Cookie{Name: "DedeUserID", Value: "42"})
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{
				"code":          0,
				"url":           "https://passport.biligame.com/crossDomain?DedeUserID=42&SESSDATA=sess&bili_jct=jct",
				"refresh_token": "rt",
			}})
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	q := NewQRLogin(newTestClient(t, srv), ChannelWeb)
	if err := q.Generate(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	u, err := q.URL()
	if err != nil || u == "" {
		t.Fatalf("URL() = %q, %v", u, err)
	}
	if q.Key() != "qk" {
		t.Errorf("Key() = %q", q.Key())
	}

	want := []QRState{StateScan, StateConfirm, StateDone}
	for i, w := range want {
		state, err := q.Poll()
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if state != w {
			t.Fatalf("poll %d = %v, want %v", i, state, w)
		}
	}

	// Once done, Poll keeps answering StateDone without hitting the server.
	before := polls.Load()
	if state, err := q.Poll(); err != nil || state != StateDone {
		t.Errorf("poll after done = %v, %v", state, err)
	}
	if polls.Load() != before {
		t.Error("poll after done made a request")
	}

	cred, err := q.Credential()
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if cred.SESSDATA != "sess" || cred.DedeUserID != "42" || cred.AcTimeValue != "rt" {
		t.Errorf("unexpected credential: %+v", cred)
	}
}

func TestQRLoginWebExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/x/passport-login/web/qrcode/generate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": 0, "data": map[string]string{"url": "u", "qrcode_key": "qk"}})
	})
	mux.HandleFunc("/x/passport-login/web/qrcode/poll", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"code": 86038}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	q := NewQRLogin(newTestClient(t, srv), ChannelWeb)
	if err := q.Generate(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	state, err := q.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if state != StateExpired {
		t.Errorf("state = %v, want StateExpired", state)
	}
	if q.Done() {
		t.Error("Done() = true after expiry")
	}
}

func TestQRLoginTV(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/x/passport-tv-login/qrcode/auth_code", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		for _, k := range []string{"appkey", "local_id", "ts", "sign"} {
			if r.PostFormValue(k) == "" {
				t.Errorf("missing form field %q", k)
			}
		}
		if got := r.PostFormValue("local_id"); got != "0" {
			t.Errorf("local_id = %q", got)
		}
		writeJSON(w, map[string]any{
			"code": 0,
			"data": map[string]string{
				"url":       "https://passport.bilibili.com/x/passport-tv-login/h5/qrcode/auth?auth_code=ac",
				"auth_code": "ac",
			},
		})
	})
	mux.HandleFunc("/x/passport-tv-login/qrcode/poll", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostFormValue("auth_code"); got != "ac" {
			t.Errorf("auth_code = %q", got)
		}
		if r.PostFormValue("sign") == "" {
			t.Error("poll form is not signed")
		}
		if polls.Add(1) == 1 {
			writeJSON(w, map[string]any{"code": 86039, "message": "未确认"})
			return
		}
		writeJSON(w, map[string]any{"code": 0, "data": map[string]any{
			"refresh_token": "rt",
			"cookie_info": map[string]any{
				"cookies": []map[string]string{
					{"name": "SESSDATA", "value": "sess"},
					{"name": "bili_jct", "value": "jct"},
					{"name": "DedeUserID", "value": "42"},
					{"name": "sid", "value": "ignored"},
				},
			},
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	q := NewQRLogin(newTestClient(t, srv), ChannelTV)
	if err := q.Generate(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q.Key() != "ac" {
		t.Errorf("Key() = %q", q.Key())
	}

	state, err := q.Poll()
	if err != nil {
		t.Fatalf("poll 1: %v", err)
	}
	if state != StateScan {
		t.Errorf("poll 1 = %v, want StateScan", state)
	}

	state, err = q.Poll()
	if err != nil {
		t.Fatalf("poll 2: %v", err)
	}
	if state != StateDone {
		t.Errorf("poll 2 = %v, want StateDone", state)
	}

	cred, err := q.Credential()
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if cred.SESSDATA != "sess" || cred.BiliJct != "jct" || cred.DedeUserID != "42" || cred.AcTimeValue != "rt" {
		t.Errorf("unexpected credential: %+v", cred)
	}
}

func TestQRLoginTVExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/x/passport-tv-login/qrcode/auth_code", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": 0, "data": map[string]string{"url": "u", "auth_code": "ac"}})
	})
	mux.HandleFunc("/x/passport-tv-login/qrcode/poll", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": 86038, "message": "二维码已失效"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	q := NewQRLogin(newTestClient(t, srv), ChannelTV)
	if err := q.Generate(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	state, err := q.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if state != StateExpired {
		t.Errorf("state = %v, want StateExpired", state)
	}
}
