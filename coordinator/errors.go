package coordinator

import "errors"

// ErrNoAggregatePublicKey is returned by Sign or AggregatePublicKey before
// any DKG round has completed.
var ErrNoAggregatePublicKey = errors.New("coordinator: no aggregate public key, run a dkg round first")

// ErrTimeout is returned when a round's context deadline elapses before
// every expected response has been collected.
var ErrTimeout = errors.New("coordinator: round timed out waiting for signer responses")
