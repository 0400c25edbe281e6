package server

import "github.com/raysh454/pagesnap/internal/logging"

type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string

	Logger logging.Logger
}
