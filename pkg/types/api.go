package types

// BatchRequest is the payload of POST /classify/batch.
type BatchRequest struct {
	// Products to classify with a single runtime invocation.
	Products []Product `json:"products"`
}

// BatchResponse wraps the per-product results of POST /classify/batch.
type BatchResponse struct {
	// One result per submitted product, in submission order.
	Results []Result `json:"results"`
}

// ModelsResponse wraps the models registered with the runtime.
type ModelsResponse struct {
	// Models reported by the runtime's list command.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
