// Package projspace branches weighted projective spaces. Starting from a
// known terminal space, each branching step raises k by one and increments
// a subset of the weights. A space with no admissible branching terminates
// the search at its k; the search looks for the largest such k.
package projspace

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/tahsin716/workq"
)

// Dim is the number of weights of a space
const Dim = 5

// Space is one node of the search. It is a fixed-size value so it can be
// spilled with workq.BinaryCodec.
type Space struct {
	K    int64
	A    [Dim]int64    // weights, nondecreasing
	MinA [Dim][2]int64 // smallest ratio A[i]/k seen on the path, as numerator and denominator
}

// Seed returns the root space: all weights 1, every ratio 1/2, k = 2.
func Seed() Space {
	s := Space{K: 2}
	for i := range s.A {
		s.A[i] = 1
		s.MinA[i] = [2]int64{1, 2}
	}
	return s
}

// Codec returns the spill codec for spaces
func Codec() workq.BinaryCodec[Space] {
	return workq.BinaryCodec[Space]{}
}

// Weight returns the sum of the weights
func (s Space) Weight() int64 {
	var h int64
	for _, a := range s.A {
		h += a
	}
	return h
}

func (s Space) ordered() bool {
	for i := 1; i < Dim; i++ {
		if s.A[i-1] > s.A[i] {
			return false
		}
	}
	return true
}

// String formats s as "k=3 (1,1,1,1,2) with (1/3,1/3,1/3,1/3,1/2)"
func (s Space) String() string {
	a := make([]string, Dim)
	m := make([]string, Dim)
	for i := 0; i < Dim; i++ {
		a[i] = fmt.Sprint(s.A[i])
		m[i] = fmt.Sprintf("%d/%d", s.MinA[i][0], s.MinA[i][1])
	}
	return fmt.Sprintf("k=%d (%s) with (%s)", s.K, strings.Join(a, ","), strings.Join(m, ","))
}

// Branch emits every space reachable from s in one step and returns how many
// it emitted. A weight may be incremented only while A[i]/(k+1) is below its
// recorded minimum ratio, the number of incremented weights must lie in
// [k+3-h, k+4-h] where h is the weight of s, and the weights must stay
// nondecreasing. Children are emitted in increasing subset order.
func Branch(s Space, emit func(Space)) int {
	h := s.Weight()
	dmin := s.K + 3 - h
	dmax := s.K + 4 - h

	var allowed uint
	for i := 0; i < Dim; i++ {
		if s.A[i]*s.MinA[i][1] < s.MinA[i][0]*(s.K+1) {
			allowed |= 1 << i
		}
	}

	n := 0
	for sub := uint(0); sub < 1<<Dim; sub++ {
		if sub&^allowed != 0 {
			continue
		}
		if size := int64(bits.OnesCount(sub)); size < dmin || size > dmax {
			continue
		}

		child := Space{K: s.K + 1, A: s.A}
		for i := 0; i < Dim; i++ {
			if sub&(1<<i) != 0 {
				child.A[i]++
			}
		}
		if !child.ordered() {
			continue
		}

		for i := 0; i < Dim; i++ {
			if s.MinA[i][0]*(s.K+1) < s.MinA[i][1]*child.A[i] {
				child.MinA[i] = s.MinA[i]
			} else {
				child.MinA[i] = [2]int64{child.A[i], s.K + 1}
			}
		}

		emit(child)
		n++
	}
	return n
}
