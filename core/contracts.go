package core

import (
	"fmt"
	"sync"
)

// Contract is a named callable unit dispatched by the contract engine.
// Execution is synchronous and deterministic; built-ins are pure and never
// touch ledger state (spec §4.6).
type Contract func(args []any) (any, error)

// ContractRegistry holds a name -> callable map and dispatches by name,
// grounded in the teacher's ContractRegistry (core/contracts.go) but
// stripped of WASM compilation and gas metering per spec §4.6/§9: contracts
// here are plain Go closures, not bytecode.
type ContractRegistry struct {
	mu        sync.RWMutex
	contracts map[string]Contract
}

// NewContractRegistry constructs a registry pre-loaded with the built-in
// carbon-offset and market-listing contracts.
func NewContractRegistry() *ContractRegistry {
	cr := &ContractRegistry{contracts: make(map[string]Contract)}
	cr.contracts["CarbonOffset"] = CarbonOffsetContract
	cr.contracts["CreateMarketListing"] = CreateMarketListingContract
	return cr
}

// Register adds or replaces a named contract.
func (cr *ContractRegistry) Register(name string, c Contract) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.contracts[name] = c
}

// Invoke dispatches by name, returning an error if the name is unknown.
func (cr *ContractRegistry) Invoke(name string, args []any) (any, error) {
	cr.mu.RLock()
	c, ok := cr.contracts[name]
	cr.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("contract %q not found", name)
	}
	return c(args)
}

// Names returns the currently registered contract names.
func (cr *ContractRegistry) Names() []string {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	out := make([]string, 0, len(cr.contracts))
	for name := range cr.contracts {
		out = append(out, name)
	}
	return out
}

func floatArg(args []any, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	switch v := args[i].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("argument %d is not numeric", i)
	}
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d is not a string", i)
	}
	return s, nil
}

// CarbonOffsetContract implements CarbonOffset(user, token_amount, carbon_kg)
// per spec §4.6: pure, never debits balances.
func CarbonOffsetContract(args []any) (any, error) {
	if _, err := stringArg(args, 0); err != nil {
		return nil, err
	}
	tokenAmount, err := floatArg(args, 1)
	if err != nil {
		return nil, err
	}
	carbonKg, err := floatArg(args, 2)
	if err != nil {
		return nil, err
	}
	if tokenAmount >= carbonKg/100 {
		return "offset successful", nil
	}
	return "insufficient tokens", nil
}

// CreateMarketListingContract implements
// CreateMarketListing(seller, token_amount, carbon_kg) per spec §4.6: pure,
// no persisted order book in the core.
func CreateMarketListingContract(args []any) (any, error) {
	seller, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	tokenAmount, err := floatArg(args, 1)
	if err != nil {
		return nil, err
	}
	carbonKg, err := floatArg(args, 2)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("listing created: seller=%s tokens=%g carbonKg=%g", seller, tokenAmount, carbonKg), nil
}
