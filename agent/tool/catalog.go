package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxline/voxline/agent/contract"
)

// Infos declares the closed command set exposed to the chat model. The field
// argument is enumerated so the model cannot invent columns.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: string(contractx.CommandUpdateField),
			Desc: "Update a customer detail in the records. Use field='name' or field='address'.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"field": {
					Type:     schema.String,
					Desc:     "Which detail to update",
					Enum:     []string{string(contractx.FieldName), string(contractx.FieldAddress)},
					Required: true,
				},
				"value": {
					Type:     schema.String,
					Desc:     "The corrected value the customer gave",
					Required: true,
				},
			}),
		},
		{
			Name:        string(contractx.CommandEndCall),
			Desc:        "Call this when the customer asks to end the call (goodbye, hang up, bye).",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name:        string(contractx.CommandReportVoicemail),
			Desc:        "Call this after hearing a voicemail greeting instead of a live person.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
	}
}

type updateArgs struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ParseCalls maps raw model tool calls onto the typed command set. An
// unknown tool name is a schema violation; field values are validated later
// by the executor so the conversation can recover with a spoken error.
func ParseCalls(calls []schema.ToolCall) ([]contractx.CommandRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	reqs := make([]contractx.CommandRequest, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		req := contractx.CommandRequest{CallID: call.ID}

		switch contractx.CommandKind(name) {
		case contractx.CommandUpdateField:
			req.Kind = contractx.CommandUpdateField
			var args updateArgs
			rawArgs := strings.TrimSpace(call.Function.Arguments)
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
					return nil, fmt.Errorf("%w: invalid args for tool=%s: %v", contractx.ErrValidation, name, err)
				}
			}
			req.Field = contractx.Field(strings.TrimSpace(args.Field))
			req.Value = strings.TrimSpace(args.Value)
		case contractx.CommandEndCall:
			req.Kind = contractx.CommandEndCall
		case contractx.CommandReportVoicemail:
			req.Kind = contractx.CommandReportVoicemail
		default:
			return nil, fmt.Errorf("%w: unknown tool=%s", contractx.ErrValidation, name)
		}

		reqs = append(reqs, req)
	}
	return reqs, nil
}
