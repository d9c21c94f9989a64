package core

// Marker names and well known type names.
const (
	// MarkerName is the marker comment that designates a method to invoke:
	//
	//	// +invoke:method
	//	// +invoke:method:returnType=int
	MarkerName = "invoke:method"
	// ReturnTypeArg is the optional marker argument carrying the expected return type.
	ReturnTypeArg = "returnType"
	// AnyTypeName is the printable name of AnyObject.
	AnyTypeName = "any"
)

// Invocation status labels used in logs and metrics.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusMismatch = "mismatch"
	StatusRejected = "rejected"
)

// Observability names.
const (
	MetricsNamespace = "invoke"
	TracerName       = "github.com/vast-data/go-invoke"
	// EnvLogLevel enables debug logging of invocations when set to "debug".
	EnvLogLevel = "INVOKE_LOG"
)
