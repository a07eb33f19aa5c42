package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/repomind/internal/pkg/errcode"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(uint32(code), message))
}

var codeTable = []struct {
	err  error
	code int
	msg  string
}{
	{appErr.ErrUnauthorized, errcode.ErrUnauthorized, "unauthorized"},
	{appErr.ErrForbidden, errcode.ErrForbidden, "forbidden"},
	{appErr.ErrNotFound, errcode.ErrNotFound, "not found"},
	{appErr.ErrInvalidRepoURL, errcode.ErrInvalidRepoURL, "invalid repository url"},
	{appErr.ErrInvalid, errcode.ErrInvalid, "invalid request"},
	{appErr.ErrConflict, errcode.ErrConflict, "conflict"},
	{appErr.ErrTooMany, errcode.ErrTooMany, "too many requests"},
	{appErr.ErrProviderUnavailable, errcode.ErrProviderUnavailable, "repository provider unavailable"},
	{appErr.ErrInsufficientCredits, errcode.ErrInsufficientCredits, "insufficient credits"},
	{appErr.ErrEmbeddingUnavailable, errcode.ErrEmbeddingUnavailable, "question could not be embedded"},
	{appErr.ErrRateLimited, errcode.ErrAIUnavailable, "ai rate limited"},
	{appErr.ErrInvalidCode, errcode.ErrInvalidCode, "INVALID_CODE"},
	{appErr.ErrCodeExpired, errcode.ErrCodeExpired, "EXPIRED_CODE"},
	{appErr.ErrCodeUsed, errcode.ErrCodeUsed, "CODE_USED"},
	{appErr.ErrInternal, errcode.ErrInternal, "internal error"},
}

// FromError writes the failure envelope matching err. Unknown errors become ErrInternal.
func FromError(c *gin.Context, err error) {
	for _, item := range codeTable {
		if errors.Is(err, item.err) {
			Error(c, item.code, item.msg)
			return
		}
	}
	Error(c, errcode.ErrInternal, "internal error")
}
