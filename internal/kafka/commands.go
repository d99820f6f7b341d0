package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/digital-egiz/sensorhub/internal/utils"
)

// Command actions accepted on the commands topic
const (
	ActionRefresh = "refresh"
	ActionStart   = "start"
	ActionStop    = "stop"
)

const commandSchema = "command"

// Command asks the simulator to change state
type Command struct {
	Action      string `json:"action"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

// CommandHandler executes a validated command
type CommandHandler func(cmd *Command) error

// CommandParser validates raw command messages against the command schema
type CommandParser struct {
	validator *utils.JSONSchemaValidator
}

// NewCommandParser compiles the command schema
func NewCommandParser() (*CommandParser, error) {
	schema, err := utils.NewJSONSchemaBuilder().
		SetTitle("Simulator command").
		AddEnumProperty("action", []string{ActionRefresh, ActionStart, ActionStop}, true).
		AddStringProperty("requestedBy", false).
		Build()
	if err != nil {
		return nil, err
	}

	validator := utils.NewJSONSchemaValidator()
	if err := validator.LoadSchema(commandSchema, schema); err != nil {
		return nil, err
	}

	return &CommandParser{validator: validator}, nil
}

// Parse validates and decodes a command message
func (p *CommandParser) Parse(data []byte) (*Command, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: command is not valid JSON", utils.ErrValidation)
	}

	if err := p.validator.ValidateBytes(commandSchema, data); err != nil {
		return nil, err
	}

	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}

	return &cmd, nil
}

// Validate checks an outgoing command against the command schema
func (p *CommandParser) Validate(cmd *Command) error {
	return p.validator.ValidateAgainstSchema(commandSchema, cmd)
}
