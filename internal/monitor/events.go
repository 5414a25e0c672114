// internal/monitor/events.go
package monitor

// event is anything the loop handles.
type event interface{}

type taskFired struct {
	kind  taskKind
	token uint64
}

type pollDone struct {
	seq uint64
	raw string
	err error
}

type healthDone struct {
	err error
}

type videoProbed struct {
	url string
	err error
}

type visibilityChanged struct {
	visible bool
}

type connectivityChanged struct {
	online bool
	manual bool
}

type videoFailed struct{}

type videoLoaded struct{}

type videoReload struct{}

type systemFailed struct {
	err error
}
