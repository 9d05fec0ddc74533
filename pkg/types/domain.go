package types

import (
	"encoding/json"
	"time"
)

// CategoryUnknown is assigned when no category from the configured set applies.
const CategoryUnknown = "unknown"

// Product is a single listing submitted for classification.
type Product struct {
	// Product title as shown in the listing.
	// example: iPhone 15 Pro Max 256GB
	Name string `json:"name" yaml:"name" toml:"name" example:"iPhone 15 Pro Max 256GB"`
	// Free-form description.
	// example: Apple smartphone
	Description string `json:"description" yaml:"description" toml:"description" example:"Apple smartphone"`
}

// Model represents a model registered with the runtime.
type Model struct {
	// Name as reported by the runtime, including the tag.
	// example: t-pro-it-2.0-optimized:latest
	Name string `json:"name" example:"t-pro-it-2.0-optimized:latest"`
	// Runtime-assigned identifier (digest prefix).
	// example: 5a8c1f2d9e01
	ID string `json:"id,omitempty" example:"5a8c1f2d9e01"`
	// Human-readable size column.
	// example: 12 GB
	Size string `json:"size,omitempty" example:"12 GB"`
	// Human-readable modification time column.
	// example: 2 days ago
	Modified string `json:"modified,omitempty" example:"2 days ago"`
}

// GPUInfo is one GPU line reported by the GPU query tool.
type GPUInfo struct {
	Name               string `json:"name" example:"NVIDIA GeForce RTX 4070 Ti"`
	MemoryUsedMB       int    `json:"memory_used_mb" example:"9120"`
	MemoryTotalMB      int    `json:"memory_total_mb" example:"12282"`
	UtilizationPercent int    `json:"utilization_percent" example:"87"`
}

// ResourceSnapshot is the most recent host sample. The zero value means no
// sample has completed yet.
type ResourceSnapshot struct {
	CPUPercent float64   `json:"cpu_percent" example:"23.5"`
	RAMPercent float64   `json:"ram_percent" example:"61.2"`
	RAMUsedGB  float64   `json:"ram_used_gb" example:"19.4"`
	RAMTotalGB float64   `json:"ram_total_gb" example:"31.7"`
	GPUInfo    []GPUInfo `json:"gpu_info"`
	Timestamp  time.Time `json:"timestamp"`
}

// Empty reports whether no sample has been taken.
func (s ResourceSnapshot) Empty() bool { return s.Timestamp.IsZero() }

// ModelInfo is a static descriptor of the configured classifier model.
type ModelInfo struct {
	ModelName   string   `json:"model_name" example:"t-pro-it-2.0-optimized"`
	IsLoaded    bool     `json:"is_loaded" example:"true"`
	Method      string   `json:"method" example:"ollama"`
	Categories  []string `json:"categories"`
	Platform    string   `json:"platform" example:"linux"`
	ModelSizeGB float64  `json:"model_size_gb" example:"12.3"`
}

// Result is the outcome of classifying one product. A Result either carries
// Error alone or all of the success fields.
type Result struct {
	ProductName       string           `json:"product_name"`
	PredictedCategory string           `json:"predicted_category"`
	Confidence        float64          `json:"confidence"`
	Reasoning         string           `json:"reasoning,omitempty"`
	FullResponse      string           `json:"full_response"`
	Method            string           `json:"method"`
	ProcessingTime    float64          `json:"processing_time"`
	Resources         ResourceSnapshot `json:"resources"`
	Error             string           `json:"error,omitempty"`
}

// ErrorResult builds a failed Result.
func ErrorResult(msg string) Result { return Result{Error: msg} }

// ErrorResults builds n identical failed Results.
func ErrorResults(n int, msg string) []Result {
	out := make([]Result, n)
	for i := range out {
		out[i] = ErrorResult(msg)
	}
	return out
}

// Failed reports whether r carries an error.
func (r Result) Failed() bool { return r.Error != "" }

type resultAlias Result

// MarshalJSON encodes error Results as {"error": "..."} only.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	return json.Marshal(resultAlias(r))
}
