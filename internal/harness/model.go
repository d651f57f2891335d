package harness

// Model identifies how units are executed.
type Model string

const (
	// ModelProcess runs every unit in its own OS process with a private
	// address space.
	ModelProcess Model = "process"

	// ModelThread runs every unit on its own OS thread inside the harness
	// process.
	ModelThread Model = "thread"
)

// Models lists every execution model in display order.
var Models = []Model{ModelProcess, ModelThread}

// ParseModel converts a user-supplied name into a Model.
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelProcess, ModelThread:
		return Model(s), nil
	default:
		return "", &ConfigurationError{
			Field:   "model",
			Value:   s,
			Message: "must be process or thread",
		}
	}
}
