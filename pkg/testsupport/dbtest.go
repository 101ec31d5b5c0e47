// Package testsupport holds helpers shared by database backed tests.
package testsupport

import (
	"fmt"
	"sync/atomic"
)

var memoryDBSeq atomic.Int64

// SQLiteMemoryDSN returns a shared-cache in-memory DSN unique to this call.
func SQLiteMemoryDSN() string {
	return fmt.Sprintf("file:cms_test_%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
}
