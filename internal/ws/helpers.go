package ws

import "github.com/pborman/uuid"

func newConnID() string {
	return uuid.New()
}
