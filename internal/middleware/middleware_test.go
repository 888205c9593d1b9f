package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/model"
	"github.com/iliyamo/apartment-portal/internal/session"
)

var testCookie = Cookie{Name: "portal_session", TTL: time.Hour}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func seed(t *testing.T, store *session.MemoryStore, id, tok string, u model.User) {
	t.Helper()
	raw, _ := json.Marshal(u)
	if err := store.Session(id).Save(context.Background(), tok, raw); err != nil {
		t.Fatal(err)
	}
}

func serve(store session.Store, cookie string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	h := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": UserFrom(c).ID, "role": c.Get(KeyRole), "token": TokenFrom(c) != ""})
	}
	all := append([]echo.MiddlewareFunc{Session(store, testCookie)}, mws...)
	e.GET("/v1/admin/bills", h, all...)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/bills", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionMiddleware(t *testing.T) {
	store := session.NewMemoryStore()
	admin := model.User{ID: "u1", Role: model.RoleAdmin}
	seed(t, store, "good", token(t, time.Now().Add(time.Hour)), admin)
	seed(t, store, "stale", token(t, time.Now().Add(-time.Hour)), admin)

	tests := []struct {
		name        string
		cookie      string
		wantStatus  int
		wantExpired bool
	}{
		{"valid session", "good", http.StatusOK, false},
		{"no cookie", "", http.StatusUnauthorized, false},
		{"unknown session", "nope", http.StatusUnauthorized, false},
		{"expired token", "stale", http.StatusUnauthorized, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(store, tt.cookie)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			var body map[string]any
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if tt.wantStatus == http.StatusOK {
				if body["user"] != "u1" || body["role"] != model.RoleAdmin || body["token"] != true {
					t.Fatalf("unexpected body %v", body)
				}
				return
			}
			if body["success"] != false {
				t.Fatalf("unexpected body %v", body)
			}
			if expired, _ := body["expired"].(bool); expired != tt.wantExpired {
				t.Fatalf("expired = %v, want %v", expired, tt.wantExpired)
			}
		})
	}

	if tok, _, _ := store.Session("stale").Load(context.Background()); tok != "" {
		t.Fatal("expired session was not cleared from storage")
	}
}

func TestRequireRole(t *testing.T) {
	store := session.NewMemoryStore()
	seed(t, store, "tenant", token(t, time.Now().Add(time.Hour)), model.User{ID: "u2", Role: model.RoleTenant})
	seed(t, store, "admin", token(t, time.Now().Add(time.Hour)), model.User{ID: "u1", Role: model.RoleAdmin})

	if rec := serve(store, "tenant", RequireRole(model.RoleAdmin)); rec.Code != http.StatusForbidden {
		t.Fatalf("tenant on admin route: status %d", rec.Code)
	}
	if rec := serve(store, "admin", RequireRole(model.RoleAdmin)); rec.Code != http.StatusOK {
		t.Fatalf("admin on admin route: status %d", rec.Code)
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"success":true}` {
		t.Fatalf("unexpected decode %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{0, 0, 0}); ok {
		t.Fatal("short payload decoded")
	}
}
