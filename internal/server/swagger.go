package server

//go:generate swag init -g internal/server/swagger.go -o internal/server/docs

// @title pagesnap API
// @version 0.1
// @description Full-page screenshot captures with JSON sidecars, a capture catalog and live progress.
// @contact.name pagesnap Maintainers
// @contact.url https://github.com/raysh454/pagesnap
// @BasePath /
