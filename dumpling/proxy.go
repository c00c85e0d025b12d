package dumpling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petal-labs/dumpling-mcp/tool"
)

// Proxy describes a tool that forwards its parameters to one upstream
// endpoint and projects the response. P is the parameter struct; it is both
// the decoded argument set and the JSON request body, so optional members use
// pointer types with omitempty and absent arguments are never sent.
type Proxy[P any] struct {
	Name        string
	Description string
	Schema      tool.Schema
	// Precondition checks cross-field rules after per-field validation.
	Precondition func(params P) error
	// Project turns the upstream body into the tool result.
	Project func(body Body) (tool.Result, error)
}

// Definition binds the proxy to client.
func (p Proxy[P]) Definition(client *Client) tool.Definition {
	return tool.Definition{
		Name:        p.Name,
		Description: p.Description,
		Schema:      p.Schema,
		Handler: func(ctx context.Context, args tool.Arguments) (tool.Result, error) {
			return p.invoke(ctx, client, args)
		},
	}
}

func (p Proxy[P]) invoke(ctx context.Context, client *Client, args tool.Arguments) (tool.Result, error) {
	params, err := decodeParams[P](args)
	if err != nil {
		return tool.Result{}, err
	}
	if p.Precondition != nil {
		if err := p.Precondition(params); err != nil {
			if _, ok := tool.AsToolError(err); ok {
				return tool.Result{}, err
			}
			return tool.Result{}, tool.NewError(tool.ToolErrorCodePreconditionFailed, "", err)
		}
	}
	if client == nil {
		return tool.Result{}, fmt.Errorf("dumpling: tool %q has no client", p.Name)
	}
	body, err := client.Post(ctx, p.Name, params)
	if err != nil {
		return tool.Result{}, err
	}
	if p.Project == nil {
		return renderJSON(body)
	}
	return p.Project(body)
}

// decodeParams converts validated arguments into P. Free-form members keep
// their numbers as json.Number so they are forwarded exactly.
func decodeParams[P any](args tool.Arguments) (P, error) {
	var params P
	raw, err := json.Marshal(args)
	if err != nil {
		return params, tool.NewError(tool.ToolErrorCodeInvalidArguments, "encode arguments", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&params); err != nil {
		return params, tool.NewError(tool.ToolErrorCodeInvalidArguments, "decode arguments: "+err.Error(), err)
	}
	return params, nil
}

// named pairs a parameter name with its value for precondition messages.
type named struct {
	name  string
	value *string
}

// requireOneOf fails unless at least one of the values is a non-blank string.
func requireOneOf(values ...named) error {
	names := make([]string, 0, len(values))
	for _, v := range values {
		if v.value != nil && strings.TrimSpace(*v.value) != "" {
			return nil
		}
		names = append(names, v.name)
	}
	return tool.Errorf(tool.ToolErrorCodePreconditionFailed, "at least one of %s must be set", strings.Join(names, " or "))
}
