package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-orders/pkg/logger"
)

func TestConnection_CloseTwice(t *testing.T) {
	c := &Connection{log: logger.NewNop(), closeChan: make(chan struct{})}

	assert.NotPanics(t, func() {
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})

	select {
	case <-c.closeChan:
	default:
		t.Fatal("expected close channel to be closed")
	}
}
