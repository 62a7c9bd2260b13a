package proc

// Predicate decides whether an address stays a candidate. prev is the value
// read by the previous round (or the snapshot), cur is the value read now.
// Predicates must be pure: the scanner calls them once per evaluated
// element, in address order, and may skip elements whose region holds no
// candidate.
type Predicate[T Value] func(prev, cur T) bool

// Always keeps every evaluated element.
func Always[T Value]() Predicate[T] {
	return func(prev, cur T) bool { return true }
}

// Equal keeps elements whose current value is v.
func Equal[T Value](v T) Predicate[T] {
	return func(prev, cur T) bool { return cur == v }
}

// NotEqual keeps elements whose current value is not v.
func NotEqual[T Value](v T) Predicate[T] {
	return func(prev, cur T) bool { return cur != v }
}

// Less keeps elements whose current value is less than v.
func Less[T Value](v T) Predicate[T] {
	return func(prev, cur T) bool { return cur < v }
}

// Greater keeps elements whose current value is greater than v.
func Greater[T Value](v T) Predicate[T] {
	return func(prev, cur T) bool { return cur > v }
}

// Changed keeps elements whose value differs from the previous round.
func Changed[T Value]() Predicate[T] {
	return func(prev, cur T) bool { return cur != prev }
}

// Unchanged keeps elements whose value is the same as in the previous round.
func Unchanged[T Value]() Predicate[T] {
	return func(prev, cur T) bool { return cur == prev }
}

// Increased keeps elements whose value grew since the previous round.
func Increased[T Value]() Predicate[T] {
	return func(prev, cur T) bool { return cur > prev }
}

// Decreased keeps elements whose value shrank since the previous round.
func Decreased[T Value]() Predicate[T] {
	return func(prev, cur T) bool { return cur < prev }
}
