package main

// General API documentation for swaggo. Regenerate internal/httpapi/docs with
// `swag init -g cmd/prodclass/docs.go -o internal/httpapi/docs`.
//
// @title           prodclass API
// @version         1.0
// @description     Product listing classification backed by a local model runtime.
//
// @contact.name   prodclass maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
