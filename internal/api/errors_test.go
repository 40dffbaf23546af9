package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gestorfit/personal-app/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondErrorAppErrorStatusAndEnvelope(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		respondError(c, domain.ErrSlotUnavailable("Sem vagas disponíveis", map[string]int{"planLimit": 3}))
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["sucesso"])
	assert.Equal(t, "Sem vagas disponíveis", body["mensagem"])
	assert.NotNil(t, body["detalhes"])
}

func TestRespondErrorWrapsUnknownAsInternal(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		respondError(c, errors.New("boom"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["sucesso"])
	assert.Equal(t, "Erro interno do servidor", body["mensagem"])
}

func TestRespondErrorTimeoutBecomes503(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		respondError(c, context.DeadlineExceeded)
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["sucesso"])
}

func TestRoleMiddlewareBlocksWrongRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin",
		func(c *gin.Context) { c.Set(ContextUserRoleKey, domain.RoleTrainer) },
		RoleMiddleware(domain.RoleAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleMiddlewareAllowsListedRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin",
		func(c *gin.Context) { c.Set(ContextUserRoleKey, domain.RoleAdmin) },
		RoleMiddleware(domain.RoleAdmin, domain.RoleTrainer),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/secure", AuthMiddleware("test-secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["sucesso"])
}
