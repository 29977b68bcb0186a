package deployments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestW3Receipts_UnreachableEndpoint(t *testing.T) {
	_, err := W3Receipts{}.BlockNumber(context.Background(), "http://127.0.0.1:1",
		"0x8f5a1d1c0b6e1f4f2a3d6b2c9e7f1a0b3c4d5e6f708192a3b4c5d6e7f8091a2b")
	assert.Error(t, err)
}
