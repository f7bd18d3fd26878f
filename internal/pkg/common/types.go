package common

// StatusResponse API 通用狀態響應
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewErrorStatus 創建錯誤狀態響應
func NewErrorStatus(message string) StatusResponse {
	return StatusResponse{
		Status:  "error",
		Message: message,
	}
}
