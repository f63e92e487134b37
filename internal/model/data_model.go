package model

// Op is an operation code as written to the adapter's op register.
// Codes outside the known set are treated as NOOP and never trigger an
// operation.
type Op byte

const (
	Noop Op = iota
	Get
	Upsert
	Delete
)

// Triggers reports whether writing this code to the op register starts an
// operation. NOOP and unrecognized codes do not.
func (o Op) Triggers() bool {
	switch o {
	case Get, Upsert, Delete:
		return true
	}
	return false
}

func (o Op) String() string {
	switch o {
	case Noop:
		return "NOOP"
	case Get:
		return "GET"
	case Upsert:
		return "UPSERT"
	case Delete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// Request is the single in-flight command handed from the bus adapter to
// the dispatcher. Value is only meaningful for UPSERT. A key of 0 is the
// vacancy sentinel: it can never be stored and a lookup on it never hits.
type Request struct {
	Op    Op
	Key   uint64
	Value uint64
}
