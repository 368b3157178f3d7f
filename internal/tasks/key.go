package tasks

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// encMode uses Core Deterministic Encoding so equal arguments always hash to
// the same key.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("tasks: CBOR encoder initialization failed: " + err.Error())
	}
}

// Key addresses one memoized computation: an operation applied to a list of
// argument values. The digest is a BLAKE3 hash of the CBOR encoded operation
// and arguments; Op and Subject are kept for invalidation by predicate.
type Key struct {
	sum     [32]byte
	op      string
	subject string
}

type keyPayload struct {
	Op   string   `cbor:"1,keyasint"`
	Args []string `cbor:"2,keyasint"`
}

// NewKey builds the key for op applied to args. The first argument is the
// key's subject.
func NewKey(op string, args ...string) Key {
	if args == nil {
		args = []string{}
	}
	data, err := encMode.Marshal(keyPayload{Op: op, Args: args})
	if err != nil {
		// Strings always encode; reaching this is a broken encoder.
		panic("tasks: key encoding failed: " + err.Error())
	}
	k := Key{sum: blake3.Sum256(data), op: op}
	if len(args) > 0 {
		k.subject = args[0]
	}
	return k
}

// Op returns the operation name.
func (k Key) Op() string { return k.op }

// Subject returns the first argument the key was built from.
func (k Key) Subject() string { return k.subject }

// IsZero reports whether the key was never built.
func (k Key) IsZero() bool { return k.sum == [32]byte{} }

// String returns the hex digest.
func (k Key) String() string {
	return hex.EncodeToString(k.sum[:])
}
