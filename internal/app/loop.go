package app

// LoopCode is the outcome of one pass of the session loop.
type LoopCode int

// Loop codes. The numeric values are stable.
const (
	LoopOk                LoopCode = 0
	LoopExit              LoopCode = 1
	LoopCancelled         LoopCode = 2
	LoopCompilationFailed LoopCode = 10
	LoopRuntimeFailed     LoopCode = 11
)

func (c LoopCode) String() string {
	switch c {
	case LoopOk:
		return "Ok"
	case LoopExit:
		return "Exit"
	case LoopCancelled:
		return "Cancelled"
	case LoopCompilationFailed:
		return "Compilation Error"
	case LoopRuntimeFailed:
		return "Runtime Error"
	default:
		return "Unknown"
	}
}

// Failed reports whether the code is an evaluation failure.
func (c LoopCode) Failed() bool {
	return c == LoopCompilationFailed || c == LoopRuntimeFailed
}
