package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// AnonymousAuthResolver selects a scheme that signs nothing. It is the
// default when no resolver is configured so unauthenticated clients need
// no auth wiring at all.
type AnonymousAuthResolver struct{}

func (AnonymousAuthResolver) ResolveAuthScheme(_ context.Context, _ *RuntimeComponents, _ *ConfigBag) (AuthScheme, error) {
	return AuthScheme{ID: "anonymous"}, nil
}

// BearerToken carries the credential for BearerTokenSigner through the
// config bag.
type BearerToken struct {
	Token string
}

// BearerTokenSigner sets an Authorization bearer header from the
// BearerToken stored in the config bag. A missing token fails the attempt
// rather than transmitting unauthenticated.
type BearerTokenSigner struct{}

func (BearerTokenSigner) Sign(_ context.Context, req *Request, bag *ConfigBag) error {
	token, ok := BagValue[BearerToken](bag)
	if !ok || token.Token == "" {
		return goerrors.New("no bearer token available for signing", goerrors.CategoryAuth).
			WithTextCode(ClientErrorDispatch)
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers["Authorization"] = "Bearer " + token.Token
	return nil
}

// orchestrateAuth resolves the attempt's auth scheme and signs the request
// in place. Schemes without a signer transmit unsigned.
func orchestrateAuth(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
	resolver := rc.AuthSchemeResolver
	if resolver == nil {
		resolver = AnonymousAuthResolver{}
	}

	scheme, err := resolver.ResolveAuthScheme(ctx, rc, bag)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "auth scheme resolution failed").
			WithTextCode(ClientErrorDispatch)
	}

	if scheme.Signer == nil {
		return nil
	}

	req := ictx.Request()
	if req == nil {
		return programmingError("signing requires a serialized request")
	}
	if err := scheme.Signer.Sign(ctx, req, bag); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "request signing failed").
			WithTextCode(ClientErrorDispatch).
			WithMetadata(map[string]any{"auth_scheme": scheme.ID})
	}
	return nil
}
