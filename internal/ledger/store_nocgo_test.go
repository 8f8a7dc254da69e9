//go:build !cgo

package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func extraFactories() map[string]storeFactory { return nil }

func TestOpen_KuzuNeedsCgo(t *testing.T) {
	_, err := Open(context.Background(), BackendKuzu, "")
	assert.ErrorContains(t, err, "cgo")
}
