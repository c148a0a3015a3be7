package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DosakuNet/dosaku"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := dosaku.New(func(o *dosaku.Options) { o.Name = "ServerAgent" })
	require.NoError(t, err)
	return New(a)
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestHandleTasks(t *testing.T) {
	s := newTestServer(t)

	rec, payload := do(t, s, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)

	learnable := payload["learnable"].([]any)
	assert.Contains(t, learnable, "Chat")
	assert.Contains(t, learnable, "ZeroShotTextClassification")
	assert.Empty(t, payload["known"])
}

func TestHandleAPI(t *testing.T) {
	s := newTestServer(t)

	rec, payload := do(t, s, http.MethodGet, "/tasks/Chat/api", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"message", "__call__"}, payload["api"])

	rec, _ = do(t, s, http.MethodGet, "/tasks/Nope/api", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDoc(t *testing.T) {
	s := newTestServer(t)

	rec, payload := do(t, s, http.MethodGet, "/tasks/Chat/doc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, payload["doc"])

	rec, _ = do(t, s, http.MethodGet, "/tasks/Chat/doc?action=message", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, http.MethodGet, "/tasks/Chat/doc?action=nope", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleLearn(t *testing.T) {
	t.Run("learns the default module", func(t *testing.T) {
		s := newTestServer(t)

		rec, payload := do(t, s, http.MethodPost, "/learn", `{"task":"Chat"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Chat", payload["task"])
		assert.Equal(t, []any{"message", "__call__"}, payload["api"])
	})

	t.Run("missing task field", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := do(t, s, http.MethodPost, "/learn", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown task maps to 404", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := do(t, s, http.MethodPost, "/learn", `{"task":"Telepathy"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("permission gate maps to 403", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := do(t, s, http.MethodPost, "/learn", `{"task":"ExecuteCode"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandleChat(t *testing.T) {
	t.Run("replies through the bound chat actor", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := do(t, s, http.MethodPost, "/learn", `{"task":"Chat","module":"EchoBot"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, payload := do(t, s, http.MethodPost, "/chat", `{"message":"Hello!"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `Hi, I'm EchoBot. You said: "Hello!".`, payload["reply"])
	})

	t.Run("drains streaming replies", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := do(t, s, http.MethodPost, "/learn",
			`{"task":"Chat","module":"EchoBot","force_relearn":true,"config":{"stream":true}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, payload := do(t, s, http.MethodPost, "/chat", `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `Hi, I'm EchoBot. You said: "hi".`, payload["reply"])
	})

	t.Run("chat before learning maps to 404", func(t *testing.T) {
		s := newTestServer(t)
		rec, _ := do(t, s, http.MethodPost, "/chat", `{"message":"hi"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleModules(t *testing.T) {
	s := newTestServer(t)
	rec, _ := do(t, s, http.MethodPost, "/learn", `{"task":"Chat"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload := do(t, s, http.MethodGet, "/modules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, payload["registered"], "EchoBot")
	assert.Equal(t, []any{"EchoBot"}, payload["loaded"])
}
