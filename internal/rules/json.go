package rules

import (
	"github.com/gordonmattey/port42-premise/internal/jsonx"
)

// The rule store is an interchange format: other tools in the premise
// toolchain read and write it between poll cycles. Round-tripping must be
// lossless, including keys this implementation does not know about, so every
// record type carries an extra map of unrecognized raw fields and implements
// json.Marshaler/json.Unmarshaler by hand.

func (c *Condition) UnmarshalJSON(data []byte) error {
	var cc Condition
	extra, err := jsonx.DecodeKnown(data, map[string]any{
		"type":      &cc.Kind,
		"pattern":   &cc.Pattern,
		"threshold": &cc.Threshold,
		"commands":  &cc.Commands,
		"hour":      &cc.Hour,
	})
	if err != nil {
		return err
	}
	cc.extra = extra
	*c = cc
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	known := map[string]any{"type": c.Kind}
	if c.Pattern != "" {
		known["pattern"] = c.Pattern
	}
	if c.Threshold != 0 {
		known["threshold"] = c.Threshold
	}
	if c.Commands != nil {
		known["commands"] = c.Commands
	}
	if c.Hour != nil {
		known["hour"] = *c.Hour
	}
	return jsonx.EncodeKnown(c.extra, known)
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var aa Action
	extra, err := jsonx.DecodeKnown(data, map[string]any{
		"type":   &aa.Kind,
		"name":   &aa.Name,
		"action": &aa.Content,
	})
	if err != nil {
		return err
	}
	aa.extra = extra
	*a = aa
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	known := map[string]any{"type": a.Kind}
	if a.Name != "" {
		known["name"] = a.Name
	}
	if a.Content != "" {
		known["action"] = a.Content
	}
	return jsonx.EncodeKnown(a.extra, known)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var rr Rule
	extra, err := jsonx.DecodeKnown(data, map[string]any{
		"description":  &rr.Description,
		"when":         &rr.When,
		"then":         &rr.Then,
		"executed":     &rr.Executed,
		"lastExecuted": &rr.LastExecuted,
	})
	if err != nil {
		return err
	}
	rr.extra = extra
	*r = rr
	return nil
}

func (r Rule) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"description": r.Description,
		"when":        r.When,
		"then":        r.Then,
	}
	if r.Executed {
		known["executed"] = true
	}
	if r.LastExecuted != "" {
		known["lastExecuted"] = r.LastExecuted
	}
	return jsonx.EncodeKnown(r.extra, known)
}
