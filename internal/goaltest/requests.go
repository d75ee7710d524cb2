package goaltest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/goaltrackr/apiserver/internal/auth"
)

func headerJSON(req *http.Request) *http.Request {
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSession attaches the session cookie when token is non-empty.
func WithSession(req *http.Request, token string) *http.Request {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	}
	return req
}

func Register(email, password, name string) *http.Request {
	payload := strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q,"name":%q}`, email, password, name))
	return headerJSON(httptest.NewRequest(http.MethodPost, "/auth/register", payload))
}

func Login(email, password string) *http.Request {
	payload := strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	return headerJSON(httptest.NewRequest(http.MethodPost, "/auth/login", payload))
}

// JSON builds a request with body encoded as JSON and the session cookie set.
func JSON(method, target, token string, body any) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		req = httptest.NewRequest(method, target, strings.NewReader(string(data)))
	}
	return WithSession(headerJSON(req), token)
}

// SessionToken returns the auth_token value set on the response, if any.
func SessionToken(w *httptest.ResponseRecorder) (string, bool) {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c.Value, true
		}
	}
	return "", false
}

// Decode unmarshals the response body into dst.
func Decode(w *httptest.ResponseRecorder, dst any) error {
	return json.NewDecoder(w.Body).Decode(dst)
}
