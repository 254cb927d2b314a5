// Package client calls the credential issuance API behind the API gateway.
package client

import (
	"context"
	"net/url"

	"vaultflow/contracts/issuance"
	"vaultflow/internal/issuance/models"
	"vaultflow/internal/platform/gateway"
	dErrors "vaultflow/pkg/domain-errors"
	"vaultflow/pkg/platform/tracer"
)

// Caller performs gateway calls. *gateway.Client satisfies it.
type Caller interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

type Client struct {
	caller    Caller
	projectID string
	tracer    tracer.Tracer
}

type Option func(*Client)

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

func New(caller Caller, projectID string, opts ...Option) *Client {
	c := &Client{caller: caller, projectID: projectID, tracer: tracer.NewNoop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type startData struct {
	CredentialTypeID string         `json:"credentialTypeId"`
	CredentialData   map[string]any `json:"credentialData"`
}

type startBody struct {
	ClaimMode string      `json:"claimMode"`
	HolderDID string      `json:"holderDid"`
	Data      []startData `json:"data"`
}

// Start asks the issuance API for a credential offer. The answer is used
// as-is and the call is never retried.
func (c *Client) Start(ctx context.Context, in models.StartInput) (offer *issuance.Offer, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanStartIssuance,
		tracer.String(tracer.AttrCredentialTypeID, in.CredentialTypeID),
		tracer.String(tracer.AttrHolderDIDHash, tracer.HashDID(in.HolderDID)),
	)
	defer func() { span.End(err) }()

	body := startBody{
		ClaimMode: models.ClaimModeTxCode,
		HolderDID: in.HolderDID,
		Data: []startData{{
			CredentialTypeID: in.CredentialTypeID,
			CredentialData:   in.CredentialData,
		}},
	}
	var out issuance.Offer
	path := "/cis/v1/" + url.PathEscape(c.projectID) + "/issuance/start"
	if err := c.caller.Do(ctx, gateway.Request{Path: path, JSON: body}, &out); err != nil {
		return nil, err
	}
	if out.CredentialOfferURI == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "issuance response has no credential offer")
	}
	return &out, nil
}
