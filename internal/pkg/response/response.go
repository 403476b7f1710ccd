package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// CodeError is the failure body rendered by proxyutil: a numeric code plus the message shown to the user.
type CodeError struct {
	code uint32
	msg  string
}

func (e CodeError) Error() string {
	return e.msg
}

func (e CodeError) Code() uint32 {
	return e.code
}

func NewCodeError(code int, msg string) CodeError {
	return CodeError{code: uint32(code), msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error always answers 200; clients branch on the envelope code.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, NewCodeError(code, message))
}
