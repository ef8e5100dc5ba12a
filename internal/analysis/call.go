package analysis

import (
	"i18n-analyzer/internal/parser"
)

// Messages reported for translatable calls.
const (
	MsgTooManyArguments   = "Too many arguments"
	MsgArgumentsMissing   = "Arguments are missing"
	MsgInvalidDefaultText = "Invalid default text. Must be a static string!"
	MsgInvalidOptions     = "Invalid options. Must be an object literal!"
	MsgDuplicateKeys      = "Duplicate keys!"
	MsgInvalidID          = "Invalid id. Must be a static string!"
	MsgInvalidDescription = "Invalid description. Must be a static string!"
	MsgIDMissing          = "Id is missing"
)

// processCall reads translatable("default", { id: "...", description: "..." }).
// Every problem is recorded and processing continues, so an element is always
// produced.
func (a *StaticAnalysis) processCall(call *parser.Node) *TranslatableSrcElement {
	var id, description, defaultText literal
	var errs []SrcError

	args := call.Field("arguments").Children()

	if len(args) > 2 {
		errs = append(errs, SrcError{Message: MsgTooManyArguments})
	}

	if len(args) >= 1 {
		defaultText = parseString(args[0])
		if defaultText.state == fieldInvalid {
			errs = append(errs, SrcError{Node: args[0], Message: MsgInvalidDefaultText})
		}

		if len(args) >= 2 {
			entries, duplicates, ok := parseObjectLiteral(args[1])
			if !ok {
				errs = append(errs, SrcError{Node: args[1], Message: MsgInvalidOptions})
				id.state = fieldInvalid
			} else {
				if duplicates {
					errs = append(errs, SrcError{Node: args[1], Message: MsgDuplicateKeys})
				}
				for _, e := range entries {
					switch e.key {
					case "id":
						id = parseString(e.value)
						if id.state == fieldInvalid {
							errs = append(errs, SrcError{Node: e.value, Message: MsgInvalidID})
						}
					case "description":
						description = parseString(e.value)
						if description.state == fieldInvalid {
							errs = append(errs, SrcError{Node: e.value, Message: MsgInvalidDescription})
						}
					}
				}
			}
		}
	} else {
		errs = append(errs, SrcError{Message: MsgArgumentsMissing})
	}

	if id.state == fieldUnset {
		errs = append(errs, SrcError{Message: MsgIDMissing})
	}

	elem := newElement(call, defaultText, id, description, errs)
	elem.getSource = sourceRenderer(call, id, defaultText, parser.QuoteString)
	return elem
}
