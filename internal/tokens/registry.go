package tokens

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tokens.yaml
var defaultRegistry []byte

// Chain describes a supported network
type Chain struct {
	ID                int64  `yaml:"id" json:"id"`
	Name              string `yaml:"name" json:"name"`
	Testnet           bool   `yaml:"testnet" json:"testnet"`
	CoingeckoPlatform string `yaml:"coingecko_platform" json:"coingecko_platform,omitempty"`
	NativeIcon        string `yaml:"native_icon" json:"native_icon"`
}

// Token is a known ERC-20 (or the native token at the zero address)
type Token struct {
	Address  string `yaml:"address" json:"address"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Name     string `yaml:"name" json:"name"`
	Decimals int    `yaml:"decimals" json:"decimals"`
	Image    string `yaml:"image" json:"image"`
}

// ListEntry is one row of the static token list
type ListEntry struct {
	Address string `yaml:"address"`
	Symbol  string `yaml:"symbol"`
	LogoURI string `yaml:"logo_uri"`
}

// Registry holds the local token metadata tiers
type Registry struct {
	Chains        []Chain     `yaml:"chains"`
	DefaultTokens []Token     `yaml:"default_tokens"`
	TokenList     []ListEntry `yaml:"token_list"`
}

// LoadRegistry parses the embedded registry
func LoadRegistry() (*Registry, error) {
	return ParseRegistry(defaultRegistry)
}

// ParseRegistry parses a registry document
func ParseRegistry(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing token registry: %w", err)
	}
	return &r, nil
}

// Chain returns a supported chain by id
func (r *Registry) Chain(id int64) (Chain, bool) {
	for _, c := range r.Chains {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// DefaultToken finds a picker token by address
func (r *Registry) DefaultToken(address string) (Token, bool) {
	for _, t := range r.DefaultTokens {
		if strings.EqualFold(t.Address, address) {
			return t, true
		}
	}
	return Token{}, false
}

// ListLogo finds a logo in the static token list
func (r *Registry) ListLogo(address string) (string, bool) {
	for _, e := range r.TokenList {
		if strings.EqualFold(e.Address, address) && e.LogoURI != "" {
			return e.LogoURI, true
		}
	}
	return "", false
}
