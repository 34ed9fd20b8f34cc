// Package contract binds ABI descriptors, chain connections, and addresses
// into callable contract handles.
package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

//go:embed abi/IERC20.json
var erc20JSON []byte

// ERC20 is the standard fungible-token interface shared by every stable
// bond's reserve. It is parsed once and never mutated.
var ERC20 = MustParseInterface("IERC20", erc20JSON)

// Interface is a parsed contract ABI together with the document it came from.
type Interface struct {
	Name string
	Raw  []byte
	ABI  abi.ABI
}

// artifact is the subset of a Hardhat/Truffle build artifact we read.
type artifact struct {
	ABI json.RawMessage `json:"abi"`
}

// ParseInterface parses raw as either a bare ABI array or a build artifact
// object carrying an "abi" field. The interface must declare at least one
// method.
func ParseInterface(name string, raw []byte) (*Interface, error) {
	doc := bytes.TrimSpace(raw)
	if len(doc) == 0 {
		return nil, fmt.Errorf("contract: %s: empty document: %w", name, domain.ErrMalformedABI)
	}

	if doc[0] == '{' {
		var art artifact
		if err := json.Unmarshal(doc, &art); err != nil {
			return nil, fmt.Errorf("contract: %s: decode artifact: %v: %w", name, err, domain.ErrMalformedABI)
		}
		if len(art.ABI) == 0 {
			return nil, fmt.Errorf("contract: %s: artifact has no abi field: %w", name, domain.ErrMalformedABI)
		}
		doc = art.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("contract: %s: %v: %w", name, err, domain.ErrMalformedABI)
	}
	if len(parsed.Methods) == 0 {
		return nil, fmt.Errorf("contract: %s: no methods declared: %w", name, domain.ErrMalformedABI)
	}

	return &Interface{Name: name, Raw: append([]byte(nil), raw...), ABI: parsed}, nil
}

// MustParseInterface is like ParseInterface but panics on error. Use it only
// for documents compiled into the binary.
func MustParseInterface(name string, raw []byte) *Interface {
	iface, err := ParseInterface(name, raw)
	if err != nil {
		panic(err)
	}
	return iface
}

// HasMethod reports whether the interface declares the named method.
func (i *Interface) HasMethod(name string) bool {
	_, ok := i.ABI.Methods[name]
	return ok
}
