package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPath is the prefix of every json endpoint.
	APIPath = RootPath + "api"

	// ErrNilACDFatalLogMsg is used if app or deps var pointer is nil.
	ErrNilACDFatalLogMsg = "app or deps is nil"
)
