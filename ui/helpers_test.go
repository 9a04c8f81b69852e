package ui

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

func ginTestContext(rec *httptest.ResponseRecorder, req *http.Request) (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(rec)
	c.Request = req
	return c, engine
}
