package utils

import "github.com/gin-gonic/gin"

type NoticeKind string

const (
	NoticeGateway     NoticeKind = "gateway"
	NoticeGeolocation NoticeKind = "geolocation"
	NoticeUpload      NoticeKind = "upload"
	NoticeAuth        NoticeKind = "auth"
	NoticeValidation  NoticeKind = "validation"
	NoticeRateLimit   NoticeKind = "rate_limit"
)

// Notice is the single failure shape every endpoint reports.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	Retryable bool       `json:"retryable"`
}

func NoticeBody(notice Notice) gin.H {
	return gin.H{"error": notice.Message, "notice": notice}
}

func AbortWithNotice(c *gin.Context, status int, notice Notice) {
	c.AbortWithStatusJSON(status, NoticeBody(notice))
}
