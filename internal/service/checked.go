package service

import (
	"math"
	"math/bits"
)

// addUint32 returns a+b or ErrArithmeticOverflow. Counters never wrap.
func addUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}

// addUint64 returns a+b or ErrArithmeticOverflow.
func addUint64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}
