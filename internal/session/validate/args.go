// # internal/session/validate/args.go

// Package validate parses raw transport arguments into typed operation
// inputs and enforces per-field constraints before anything reaches the
// engine. Scalar rules use ozzo-validation; structural checks are
// hand-rolled.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"classforge/internal/session/contracts"
)

const (
	maxNameLength  = 128
	maxPathLength  = 1024
	maxLimitValue  = 5000
	maxGroupIDSize = 64
)

// ParseArgs decodes and validates the params for one operation. The raw
// map comes straight off a transport; nil means no params were given.
func ParseArgs(operation string, raw map[string]any) (contracts.OperationID, any, error) {
	op := contracts.OperationID(strings.TrimSpace(operation))
	if op == "" {
		return "", nil, contracts.OpError{Code: contracts.ErrorInvalidArgument, Message: "operation is required"}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	switch op {
	case contracts.OperationClassList:
		return op, contracts.ClassListInput{}, nil

	case contracts.OperationClassLookup:
		var input contracts.ClassLookupInput
		if err := decodeParams(raw, &input); err != nil {
			return "", nil, err
		}
		input.Name = strings.TrimSpace(input.Name)
		if err := checkRules(validation.ValidateStruct(&input,
			validation.Field(&input.Name, validation.Required, validation.RuneLength(1, maxNameLength)),
		)); err != nil {
			return "", nil, err
		}
		return op, input, nil

	case contracts.OperationMethodLookup:
		var input contracts.MethodLookupInput
		if err := decodeParams(raw, &input); err != nil {
			return "", nil, err
		}
		input.Name = strings.TrimSpace(input.Name)
		if err := checkRules(validation.ValidateStruct(&input,
			validation.Field(&input.Name, validation.Required, validation.RuneLength(1, maxNameLength)),
		)); err != nil {
			return "", nil, err
		}
		return op, input, nil

	case contracts.OperationNameLegal:
		var input contracts.NameLegalInput
		if err := decodeParams(raw, &input); err != nil {
			return "", nil, err
		}
		// Proposed is deliberately NOT trimmed here: trimming is part of
		// the resolver's own contract and tests depend on it.
		input.Kind = strings.TrimSpace(input.Kind)
		if err := checkRules(validation.ValidateStruct(&input,
			validation.Field(&input.Proposed, validation.Required, validation.RuneLength(1, maxNameLength)),
			validation.Field(&input.Kind, validation.Required, validation.In("class", "method")),
			validation.Field(&input.BlockID, validation.RuneLength(0, maxNameLength)),
		)); err != nil {
			return "", nil, err
		}
		return op, input, nil

	case contracts.OperationRefsFind:
		input, err := classParam(raw)
		if err != nil {
			return "", nil, err
		}
		return op, contracts.RefsFindInput(input), nil

	case contracts.OperationMembersFind:
		input, err := classParam(raw)
		if err != nil {
			return "", nil, err
		}
		return op, contracts.MembersFindInput(input), nil

	case contracts.OperationCtorFind:
		input, err := classParam(raw)
		if err != nil {
			return "", nil, err
		}
		return op, contracts.CtorFindInput(input), nil

	case contracts.OperationClassRename, contracts.OperationMethodRename:
		var input contracts.RenameInput
		if err := decodeParams(raw, &input); err != nil {
			return "", nil, err
		}
		input.OldName = strings.TrimSpace(input.OldName)
		if err := checkRules(validation.ValidateStruct(&input,
			validation.Field(&input.OldName, validation.Required, validation.RuneLength(1, maxNameLength)),
			validation.Field(&input.NewName, validation.Required, validation.RuneLength(1, maxNameLength)),
		)); err != nil {
			return "", nil, err
		}
		return op, input, nil

	case contracts.OperationCallersMutate:
		input, err := classParam(raw)
		if err != nil {
			return "", nil, err
		}
		return op, contracts.CallersMutateInput(input), nil

	case contracts.OperationPaletteBuild:
		return op, contracts.PaletteBuildInput{}, nil

	case contracts.OperationWorkspaceLoad:
		var input contracts.WorkspaceLoadInput
		if err := decodeParams(raw, &input); err != nil {
			return "", nil, err
		}
		input.Path = strings.TrimSpace(input.Path)
		if err := checkRules(validation.ValidateStruct(&input,
			validation.Field(&input.Path, validation.Required, validation.RuneLength(1, maxPathLength)),
		)); err != nil {
			return "", nil, err
		}
		return op, input, nil

	case contracts.OperationWorkspaceSave:
		var input contracts.WorkspaceSaveInput
		if err := decodeParams(raw, &input); err != nil {
			return "", nil, err
		}
		input.Path = strings.TrimSpace(input.Path)
		if err := checkRules(validation.ValidateStruct(&input,
			validation.Field(&input.Path, validation.RuneLength(0, maxPathLength)),
		)); err != nil {
			return "", nil, err
		}
		return op, input, nil

	case contracts.OperationHistoryList:
		var input contracts.HistoryListInput
		if err := decodeParams(raw, &input); err != nil {
			return "", nil, err
		}
		input.Since = strings.TrimSpace(input.Since)
		input.GroupID = strings.TrimSpace(input.GroupID)
		if err := checkRules(validation.ValidateStruct(&input,
			validation.Field(&input.GroupID, validation.RuneLength(0, maxGroupIDSize)),
			validation.Field(&input.Limit, validation.Min(0), validation.Max(maxLimitValue)),
		)); err != nil {
			return "", nil, err
		}
		if input.Since != "" {
			if _, err := time.Parse(time.RFC3339, input.Since); err != nil {
				return "", nil, contracts.OpError{
					Code:    contracts.ErrorInvalidArgument,
					Message: "since must be an RFC3339 timestamp",
					Details: map[string]any{"since": input.Since},
				}
			}
		}
		return op, input, nil

	case contracts.OperationSystemHealth:
		return op, contracts.SystemHealthInput{}, nil
	}

	return "", nil, contracts.OpError{
		Code:    contracts.ErrorInvalidArgument,
		Message: fmt.Sprintf("unsupported operation: %s", op),
	}
}

// classParam covers the operations whose only input is a class name.
func classParam(raw map[string]any) (contracts.RefsFindInput, error) {
	var input contracts.RefsFindInput
	if err := decodeParams(raw, &input); err != nil {
		return input, err
	}
	input.Class = strings.TrimSpace(input.Class)
	if err := checkRules(validation.ValidateStruct(&input,
		validation.Field(&input.Class, validation.Required, validation.RuneLength(1, maxNameLength)),
	)); err != nil {
		return input, err
	}
	return input, nil
}

func decodeParams(params map[string]any, out any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return contracts.OpError{Code: contracts.ErrorInvalidArgument, Message: "invalid params encoding"}
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return contracts.OpError{
			Code:    contracts.ErrorInvalidArgument,
			Message: "invalid params",
			Details: map[string]any{"error": err.Error()},
		}
	}
	return nil
}

// checkRules converts an ozzo-validation result into the wire error
// envelope, with one detail entry per failed field.
func checkRules(err error) error {
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validation.Errors); ok {
		details := make(map[string]any, len(fieldErrs))
		for field, ferr := range fieldErrs {
			details[field] = ferr.Error()
		}
		return contracts.OpError{Code: contracts.ErrorInvalidArgument, Message: "invalid params", Details: details}
	}
	return contracts.OpError{Code: contracts.ErrorInvalidArgument, Message: err.Error()}
}
