package bus

// Layout fixes the word offsets of the adapter's register file. The map
// is parameterized only by the number of value words k:
//
//	0            op       (write, trigger)
//	1            key      (write)
//	2 .. 2+k-1   value    (write, word 0 least significant)
//	2+k          status   (read)
//	3+k .. 3+2k  result   (read, same word order as value)
type Layout struct {
	ValueWords int
}

func (l Layout) Op() int  { return 0 }
func (l Layout) Key() int { return 1 }

func (l Layout) Value(i int) int { return 2 + i }

func (l Layout) Status() int { return 2 + l.ValueWords }

func (l Layout) Result(i int) int { return 3 + l.ValueWords + i }

// Words is the total size of the register file in bus words.
func (l Layout) Words() int { return 3 + 2*l.ValueWords }

// Status register bit assignments.
const (
	StatusDone  uint64 = 1 << 0
	StatusHit   uint64 = 1 << 1
	StatusError uint64 = 1 << 2

	statusStateShift = 3 // bits [4:3] hold the adapter FSM state
)
