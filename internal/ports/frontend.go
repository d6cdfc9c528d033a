package ports

// Frontend is a transport that feeds requests into the analysis gateway
type Frontend interface {
	// Start starts serving. It returns once the frontend is ready or failed.
	Start() error

	// Stop stops the frontend and releases its resources
	Stop() error
}
