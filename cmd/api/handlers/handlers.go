package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation: http.StatusBadRequest,
	apperr.KindNotFound:   http.StatusNotFound,
	apperr.KindConflict:   http.StatusConflict,
	apperr.KindUpstream:   http.StatusBadGateway,
	apperr.KindParse:      http.StatusBadGateway,
	apperr.KindConstraint: http.StatusUnprocessableEntity,
}

// statusFor maps an error kind to its HTTP status. Unclassified errors are 500.
func statusFor(err error) int {
	if s, ok := kindStatus[apperr.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// respondError 는 에러 종류를 상태 코드로 바꾸고 {"error": reason} 으로 응답한다.
// 분류되지 않은 에러의 상세 내용은 로그에만 남긴다.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	reason := apperr.Reason(err)
	fields := requestFields(c)
	fields["status"] = status
	fields["error"] = err.Error()
	if status == http.StatusInternalServerError {
		reason = "Internal server error"
		logger.ErrorWithFields("request failed", fields)
	} else {
		logger.WarnWithFields("request rejected", fields)
	}
	c.JSON(status, gin.H{"error": reason})
}

func badRequest(c *gin.Context, reason string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": reason})
}

// objectIDParam 은 경로 파라미터를 ObjectID 로 파싱한다. 실패하면 400 을 내려주고 false 를 반환한다.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func requestFields(c *gin.Context) logger.Fields {
	return logger.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.Request.Header.Get("X-Request-Id"),
		"span_id":    c.Request.Header.Get("X-Span-Id"),
	}
}
