package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// UnknownImage is served when no tier knows the token
const UnknownImage = "https://www.coingecko.com/images/missing_large.png"

// ErrUnsupportedChain is returned for chain ids outside the registry
var ErrUnsupportedChain = errors.New("unsupported chain")

// ImageSource looks a token image up remotely
type ImageSource interface {
	ContractImage(ctx context.Context, platform, address string) (string, error)
}

// Resolver maps a box currency to a display image. Tiers are tried in
// order: native icon, picker tokens, static list, then CoinGecko on mainnets.
type Resolver struct {
	registry *Registry
	remote   ImageSource
	log      logrus.FieldLogger
}

// NewResolver creates a resolver. remote may be nil to stay offline.
func NewResolver(registry *Registry, remote ImageSource, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		registry: registry,
		remote:   remote,
		log:      log.WithField("component", "token_resolver"),
	}
}

// Image resolves the image for a currency on chainID
func (r *Resolver) Image(ctx context.Context, chainID int64, currency common.Address) (string, error) {
	chain, ok := r.registry.Chain(chainID)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}

	if currency == (common.Address{}) && chain.NativeIcon != "" {
		return chain.NativeIcon, nil
	}

	addr := currency.Hex()
	if token, ok := r.registry.DefaultToken(addr); ok && token.Image != "" {
		return token.Image, nil
	}
	if logo, ok := r.registry.ListLogo(addr); ok {
		return logo, nil
	}

	if chain.Testnet || chain.CoingeckoPlatform == "" || r.remote == nil {
		return UnknownImage, nil
	}

	image, err := r.remote.ContractImage(ctx, chain.CoingeckoPlatform, addr)
	if err != nil {
		r.log.WithError(err).WithField("address", addr).Warn("coingecko image lookup failed")
		return UnknownImage, nil
	}
	if image == "" {
		return UnknownImage, nil
	}
	return image, nil
}

// Token returns picker metadata for a currency, if known
func (r *Resolver) Token(currency common.Address) (Token, bool) {
	return r.registry.DefaultToken(currency.Hex())
}

// DefaultTokens lists the picker tokens
func (r *Resolver) DefaultTokens() []Token {
	out := make([]Token, len(r.registry.DefaultTokens))
	copy(out, r.registry.DefaultTokens)
	return out
}
