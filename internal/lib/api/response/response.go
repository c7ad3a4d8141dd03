package response

type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"error,omitempty"`
}

// Detail is the error envelope of the webhook surface
type Detail struct {
	Detail string `json:"detail"`
}

type Status struct {
	Status string `json:"status"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:    data,
		Success: true,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

func Fail(detail string) Detail {
	return Detail{Detail: detail}
}

func Success() Status {
	return Status{Status: "success"}
}
