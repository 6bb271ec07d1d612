package txnsvc

import (
	"bytes"
	_ "embed"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/txnanalyzer/wscutils"
)

const (
	ErrcodeFileRequired     = "file_required"
	ErrcodeInvalidFileType  = "invalid_file_type"
	ErrcodeFileTooLarge     = "file_too_large"
	ErrcodeEmptyFile        = "empty_file"
	ErrcodeFileUnreadable   = "file_unreadable"
	ErrcodeProcessingFailed = "processing_failed"
	ErrcodeMalformedUpload  = "malformed_upload"
)

//go:embed errortypes.yaml
var errorTypes []byte

// LoadErrorTypes registers the service's errcode to msgid catalog.
func LoadErrorTypes() error {
	return wscutils.LoadErrorTypes(bytes.NewReader(errorTypes))
}

func sendError(c *gin.Context, status int, errcode string, field *string, vals ...string) {
	msg := wscutils.BuildErrorMessage(wscutils.MsgID(errcode), errcode, field, vals...)
	wscutils.SendErrorResponse(c, status, wscutils.NewResponse(wscutils.ErrorStatus, nil, []wscutils.ErrorMessage{msg}))
}
