package wscutils

// Error codes raised by the shared middleware. Endpoint-specific codes live
// with their handlers.
const (
	ErrcodeUnknown        = "unknown"
	ErrcodeInternal       = "internal"
	ErrcodeRequestTimeout = "request_timeout"
)

// DefaultMsgID is used when neither the errcode nor ErrcodeUnknown is in the
// catalog.
const DefaultMsgID = 9999
