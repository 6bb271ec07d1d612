// Package wscutils holds the response envelope shared by all endpoints and the
// catalog that maps error codes to the message IDs clients use to pick a
// localised message.
package wscutils

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

const (
	SuccessStatus = "success"
	ErrorStatus   = "error"
)

// Response represents the standard structure of a response of the web service.
type Response struct {
	Status   string         `json:"status"`
	Data     any            `json:"data"`
	Messages []ErrorMessage `json:"messages"`
}

// ErrorMessage defines the format of the error part of the standard response.
type ErrorMessage struct {
	MsgID   int      `json:"msgid"`
	ErrCode string   `json:"errcode"`
	Field   *string  `json:"field,omitempty"`
	Vals    []string `json:"vals,omitempty"`
}

var (
	catalogMu  sync.RWMutex
	errorTypes = map[string]int{}
)

// LoadErrorTypes reads a YAML mapping of errcode to msgid and merges it into
// the catalog.
//
//	file_required: 1101
//	empty_file: 1104
func LoadErrorTypes(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading error types: %w", err)
	}
	types := map[string]int{}
	if err := yaml.Unmarshal(data, &types); err != nil {
		return fmt.Errorf("parsing error types: %w", err)
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()
	for code, id := range types {
		errorTypes[code] = id
	}
	return nil
}

// MsgID returns the message ID registered for errcode, falling back to the
// ID of ErrcodeUnknown and then to DefaultMsgID.
func MsgID(errcode string) int {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	if id, ok := errorTypes[errcode]; ok {
		return id
	}
	log.Printf("Unrecognized errcode: %s", errcode)
	if id, ok := errorTypes[ErrcodeUnknown]; ok {
		return id
	}
	return DefaultMsgID
}

// BuildErrorMessage builds an ErrorMessage. field may be nil.
//
//	BuildErrorMessage(1101, "file_required", &field)
//	BuildErrorMessage(1105, "file_too_large", nil, "5242880")
func BuildErrorMessage(msgID int, errcode string, field *string, vals ...string) ErrorMessage {
	return ErrorMessage{
		MsgID:   msgID,
		ErrCode: errcode,
		Field:   field,
		Vals:    vals,
	}
}

// NewResponse is a helper function to create a new web service response.
func NewResponse(status string, data any, messages []ErrorMessage) *Response {
	return &Response{
		Status:   status,
		Data:     data,
		Messages: messages,
	}
}

// ErrorResponse creates an error response for errcode, taking the message ID
// from the catalog.
func ErrorResponse(errcode string, vals ...string) *Response {
	return NewResponse(ErrorStatus, nil, []ErrorMessage{BuildErrorMessage(MsgID(errcode), errcode, nil, vals...)})
}

// NewSuccessResponse simplifies the process of creating a standard success response
func NewSuccessResponse(data any) *Response {
	return NewResponse(SuccessStatus, data, nil)
}

// SendSuccessResponse sends a JSON response with status 200.
func SendSuccessResponse(c *gin.Context, response *Response) {
	c.JSON(http.StatusOK, response)
}

// SendErrorResponse sends a JSON error response with the given HTTP status.
func SendErrorResponse(c *gin.Context, status int, response *Response) {
	c.JSON(status, response)
}
