package httpapi

const defaultMaxBodyBytes int64 = 1 << 20

// maxBodyBytes limits JSON request bodies.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes sets the request body limit; n <= 0 restores 1 MiB.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// maxBatch limits the number of products in one batch request; 0 disables it.
var maxBatch = 0

// SetMaxBatch sets the batch size limit.
func SetMaxBatch(n int) {
	if n < 0 {
		n = 0
	}
	maxBatch = n
}

// CORS configuration (opt-in). With no origins no CORS middleware is added.
var (
	corsAllowedOrigins []string
	corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	corsAllowedHeaders = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
)

// SetCORSOptions enables CORS for origins. Empty methods or headers keep the defaults.
func SetCORSOptions(origins, methods, headers []string) {
	corsAllowedOrigins = append([]string(nil), origins...)
	if len(methods) > 0 {
		corsAllowedMethods = append([]string(nil), methods...)
	}
	if len(headers) > 0 {
		corsAllowedHeaders = append([]string(nil), headers...)
	}
}
