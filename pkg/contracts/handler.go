package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// LongRunning is implemented by handlers with routes that may legitimately
// outlast the per-request timeout. The listed paths are served without it.
type LongRunning interface {
	LongRunningPaths() []string
}
