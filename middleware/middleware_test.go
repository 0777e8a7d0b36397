package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	sb "github.com/reoring/shapebind"
	"github.com/reoring/shapebind/middleware"
	"github.com/reoring/shapebind/model"
)

var userSchema = sb.MustSchema("User", sb.MustFromMap(map[string]any{
	"name": "string.required",
	"age":  "number",
}))

func serve(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestValidateJSON_Accepts(t *testing.T) {
	var gotName any
	var bound model.Props
	h := middleware.ValidateJSON(userSchema, middleware.Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, ok := middleware.DocumentFromContext(r.Context())
		if !ok {
			t.Errorf("document missing from context")
		}
		gotName = doc["name"]
		c := model.ComponentFunc(func(ctx context.Context, props model.Props) error {
			bound = props
			return nil
		})
		m, _ := model.Model(sb.MustFromMap(map[string]any{"name": "string"}), c, model.Options{})
		_ = m.Render(r.Context(), nil)
		w.WriteHeader(http.StatusCreated)
	}))
	rec := serve(t, h, `{"name":"kim","age":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if gotName != "kim" {
		t.Fatalf("unexpected name %v", gotName)
	}
	if diff := cmp.Diff(model.Props{"name": "kim"}, bound); diff != "" {
		t.Fatalf("model store (-want +got):\n%s", diff)
	}
}

func TestValidateJSON_RejectsWithAllIssues(t *testing.T) {
	called := false
	h := middleware.ValidateJSON(userSchema, middleware.Options{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	rec := serve(t, h, `{"age":"old"}`)
	if called {
		t.Fatalf("handler must not run")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Issues []struct {
			Path string `json:"path"`
			Code string `json:"code"`
		} `json:"issues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var paths []string
	for _, it := range body.Issues {
		paths = append(paths, it.Path+":"+it.Code)
	}
	if diff := cmp.Diff([]string{"age:invalid_type", "name:required"}, paths); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestValidateJSON_FailFast(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := middleware.ValidateJSON(userSchema, middleware.Options{Logger: zap.New(core)})(http.NotFoundHandler())
	rec := serve(t, h, `{"age":"old"}`)
	var body map[string][]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n := len(body["issues"]); n != 1 {
		t.Fatalf("expected only the first issue, got %d", n)
	}
	if logs.FilterMessage("request rejected").Len() != 1 {
		t.Fatalf("expected the rejection to be logged")
	}
}

func TestValidateJSON_BadJSON(t *testing.T) {
	h := middleware.ValidateJSON(userSchema, middleware.DefaultOptions())(http.NotFoundHandler())
	rec := serve(t, h, `{"name":`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body)
	}
}

func TestErrorPayload(t *testing.T) {
	got := middleware.ErrorPayload([]sb.Issue{{Path: "a", Code: sb.CodeRequired, Message: "m"}})
	want := map[string]any{"issues": []map[string]any{{"path": "a", "code": "required", "message": "m"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
