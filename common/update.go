package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

// HasUpdateAccess returns true if the committee witnessed the invocation and
// the contract can be updated.
func HasUpdateAccess() bool {
	return runtime.CheckWitness(CommitteeAddress())
}
