// Package client calls the verification API behind the API gateway.
package client

import (
	"context"
	"encoding/json"

	"vaultflow/internal/platform/gateway"
	"vaultflow/internal/verifier/models"
	"vaultflow/pkg/platform/tracer"
)

const verifyPath = "/ver/v1/verifier/verify-vp"

// Caller performs gateway calls. *gateway.Client satisfies it.
type Caller interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

type Client struct {
	caller Caller
	tracer tracer.Tracer
}

type Option func(*Client)

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

func New(caller Caller, opts ...Option) *Client {
	c := &Client{caller: caller, tracer: tracer.NewNoop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyPresentation posts the bundle and returns the verifier's answer.
// A well-formed isValid=false answer is a result, not an error.
func (c *Client) VerifyPresentation(ctx context.Context, in models.VerifyInput) (result *models.Result, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanVerifyPresentation,
		tracer.String(tracer.AttrDefinitionID, definitionID(in.PresentationDefinition)),
	)
	defer func() { span.End(err) }()

	var out models.Result
	if err := c.caller.Do(ctx, gateway.Request{Path: verifyPath, JSON: in}, &out); err != nil {
		return nil, err
	}
	span.SetAttributes(
		tracer.Bool(tracer.AttrIsValid, out.IsValid),
		tracer.Int(tracer.AttrErrorCount, len(out.Errors)),
	)
	return &out, nil
}

func definitionID(raw json.RawMessage) string {
	var def struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &def); err != nil {
		return ""
	}
	return def.ID
}
