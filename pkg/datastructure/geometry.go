package datastructure

const (
	EPS = 1e-6
)

// Lt. a < b beyond EPS
func Lt(a, b float64) bool {
	return a+EPS < b
}

func Le(a, b float64) bool {
	return a <= b+EPS
}

func Gt(a, b float64) bool {
	return Lt(b, a)
}

func Ge(a, b float64) bool {
	return Le(b, a)
}
