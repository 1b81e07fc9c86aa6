package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

// ErrCommitteeWitnessFailed appears when the method must be
// called by the Neo committee but was not.
var ErrCommitteeWitnessFailed = "committee witness check failed"

// CheckCommitteeWitness checks witness of the Neo committee multisignature
// account. It panics with ErrCommitteeWitnessFailed message on fail.
func CheckCommitteeWitness() {
	checkWitnessWithPanic(CommitteeAddress(), ErrCommitteeWitnessFailed)
}

func checkWitnessWithPanic(caller []byte, panicMsg string) {
	if !runtime.CheckWitness(caller) {
		panic(panicMsg)
	}
}
