package server

// CaptureRequest is the payload for POST /captures and POST /jobs.
type CaptureRequest struct {
	URL string `json:"url" example:"http://localhost:9999/lazy"`
	// WaitTime is an optional extra delay in seconds.
	WaitTime *int `json:"wait_time,omitempty" example:"2"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
