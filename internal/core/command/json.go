package command

import (
	"encoding/json"
	"fmt"
)

// envelope is the kind-tagged wire format for commands.
type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal serializes a command into a kind-tagged JSON envelope.
func Marshal(cmd Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", cmd.Kind(), err)
	}
	return json.Marshal(envelope{Kind: cmd.Kind(), Payload: payload})
}

// Unmarshal deserializes a kind-tagged JSON envelope into the concrete
// command variant.
func Unmarshal(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal command envelope: %w", err)
	}

	var cmd Command
	switch env.Kind {
	case KindCreateTask:
		cmd = &CreateTask{}
	case KindUpdateTask:
		cmd = &UpdateTask{}
	case KindDeleteTask:
		cmd = &DeleteTask{}
	case KindSetFilter:
		cmd = &SetFilter{}
	case KindSetTheme:
		cmd = &SetTheme{}
	default:
		return nil, fmt.Errorf("unknown command kind %q", env.Kind)
	}

	if err := json.Unmarshal(env.Payload, cmd); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Kind, err)
	}

	// Return by value to keep commands immutable once issued.
	switch c := cmd.(type) {
	case *CreateTask:
		return *c, nil
	case *UpdateTask:
		return *c, nil
	case *DeleteTask:
		return *c, nil
	case *SetFilter:
		return *c, nil
	case *SetTheme:
		return *c, nil
	}
	return cmd, nil
}
