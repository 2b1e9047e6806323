package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// ValidationIssue is one schema violation found in a rule store payload.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidateStore checks a raw rule store payload (a JSON array of rules)
// against the embedded schema. It returns the list of violations, empty
// when the payload conforms. The error return is reserved for payloads
// that are not JSON at all or for schema compilation trouble.
//
// Validation is advisory: the engine itself tolerates unknown kinds and
// missing fields at run time. This exists so authors can lint a store
// before pointing the daemon at it.
func ValidateStore(data []byte) ([]ValidationIssue, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling rule schema: %w", err)
	}

	expr, err := cuejson.Extract("rules.json", data)
	if err != nil {
		return nil, fmt.Errorf("parsing rules payload: %w", err)
	}
	payload := ctx.BuildExpr(expr)
	if err := payload.Err(); err != nil {
		return nil, fmt.Errorf("building rules payload: %w", err)
	}

	unified := schema.FillPath(cue.ParsePath("rules"), payload)
	verr := unified.Validate(cue.Concrete(true), cue.Final())
	if verr == nil {
		return nil, nil
	}

	var issues []ValidationIssue
	for _, e := range cueerrors.Errors(verr) {
		issues = append(issues, ValidationIssue{
			Path:    strings.Join(e.Path(), "."),
			Message: e.Error(),
		})
	}
	return issues, nil
}
