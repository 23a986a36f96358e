package browser

import "strconv"

// IDGen hands out list keys "_0", "_1", ... for one session.
type IDGen struct {
	next int
}

// Next returns a fresh key.
func (g *IDGen) Next() string {
	k := "_" + strconv.Itoa(g.next)
	g.next++
	return k
}

// Reset restarts the sequence.
func (g *IDGen) Reset() { g.next = 0 }
