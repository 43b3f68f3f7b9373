package checkout

import "context"

// Position is a device coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geolocation error codes, mirroring the browser API's numbering.
const (
	PositionPermissionDenied = 1
	PositionUnavailable      = 2
)

// PositionError distinguishes permission denials from other location
// failures.
type PositionError struct {
	Code    int
	Message string
}

func (e *PositionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "geolocation failed"
}

// Geolocator obtains device coordinates. It is an external collaborator; the
// flow only consumes the result.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}
