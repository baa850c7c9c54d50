package backend

import (
	"context"
	"errors"
)

var ErrBackend = errors.New("execution backend failure")

// Guest is a running execution environment reachable at IP:Port. Handle is the
// backend-internal identifier needed to stop it.
type Guest struct {
	IP     string
	Port   int
	Handle string
}

// Backend boots and tears down guest execution environments. The engine never
// interprets backend errors beyond success/failure.
type Backend interface {
	Start(ctx context.Context, image, kernel string, vcpus, memoryMB int) (Guest, error)
	Stop(ctx context.Context, g Guest) error
}
