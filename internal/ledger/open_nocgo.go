//go:build !cgo

package ledger

import "errors"

func openKuzu(string) (Store, error) {
	return nil, errors.New("ledger: kuzu backend requires a cgo build")
}
