package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"gestorfit/personal-app/internal/domain"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// errorEnvelope is the single JSON error shape every endpoint answers with.
type errorEnvelope struct {
	Sucesso  bool        `json:"sucesso"`
	Mensagem string      `json:"mensagem"`
	Detalhes interface{} `json:"detalhes,omitempty"`
}

// abortWithError writes the error envelope and aborts the request.
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, errorEnvelope{Sucesso: false, Mensagem: message})
}

// respondError is the single error-translation layer: domain AppErrors carry
// their own status, storage timeouts become 503, everything else is a 500
// whose detail leaks only outside release mode.
func respondError(c *gin.Context, err error) {
	if appErr, ok := domain.AsAppError(err); ok {
		c.AbortWithStatusJSON(appErr.Status, errorEnvelope{
			Sucesso:  false,
			Mensagem: appErr.Message,
			Detalhes: appErr.Details,
		})
		return
	}

	if isStorageUnavailable(err) {
		storageErr := domain.ErrStorageUnavailable()
		c.AbortWithStatusJSON(storageErr.Status, errorEnvelope{Sucesso: false, Mensagem: storageErr.Message})
		return
	}

	log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	envelope := errorEnvelope{Sucesso: false, Mensagem: "Erro interno do servidor"}
	if gin.Mode() != gin.ReleaseMode {
		envelope.Detalhes = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, envelope)
}

// isStorageUnavailable recognizes connection/timeout failures from the Mongo
// driver. No automatic retry; the caller gets a retry-later 503.
func isStorageUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
