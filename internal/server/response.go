package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps err onto its status code and error envelope.
func RespondError(c *gin.Context, err error) {
	c.JSON(common.HTTPStatus(err), ErrorEnvelope{Error: apiError(err)})
}

func respondMessage(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func apiError(err error) APIError {
	msg := "unknown error"
	if err != nil {
		msg = common.UserMessage(err)
	}
	return APIError{Message: msg, Code: common.ErrorCode(err)}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
