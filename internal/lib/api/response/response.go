package response

// Response is the envelope returned by every HTTP handler.
type Response struct {
	Status string      `json:"status"`
	Error  string      `json:"error,omitempty"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func Ok(data interface{}) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ErrorCode attaches a stable machine-readable code to an error reply.
func ErrorCode(code, msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
		Code:   code,
	}
}
