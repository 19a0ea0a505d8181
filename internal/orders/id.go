package orders

import "github.com/oklog/ulid/v2"

const orderIDPrefix = "YS"

// NewOrderID returns a time-ordered, collision-resistant order identifier.
func NewOrderID() string {
	return orderIDPrefix + ulid.Make().String()
}
