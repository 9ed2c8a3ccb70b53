package core

import "testing"

func TestCarbonOffsetContractSufficientTokens(t *testing.T) {
	result, err := CarbonOffsetContract([]any{"alice", 10.0, 500.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "offset successful" {
		t.Fatalf("expected success, got %v", result)
	}
}

func TestCarbonOffsetContractInsufficientTokens(t *testing.T) {
	result, err := CarbonOffsetContract([]any{"alice", 1.0, 500.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "insufficient tokens" {
		t.Fatalf("expected insufficient tokens, got %v", result)
	}
}

func TestCarbonOffsetContractMissingArgs(t *testing.T) {
	if _, err := CarbonOffsetContract([]any{"alice"}); err == nil {
		t.Fatalf("expected error on missing args")
	}
}

func TestCreateMarketListingContract(t *testing.T) {
	result, err := CreateMarketListingContract([]any{"bob", 5.0, 250.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == "" {
		t.Fatalf("expected non-empty listing description")
	}
}

func TestContractRegistryInvokeUnknownName(t *testing.T) {
	cr := NewContractRegistry()
	if _, err := cr.Invoke("DoesNotExist", nil); err == nil {
		t.Fatalf("expected error for unknown contract")
	}
}

func TestContractRegistryHasBuiltins(t *testing.T) {
	cr := NewContractRegistry()
	names := cr.Names()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["CarbonOffset"] || !found["CreateMarketListing"] {
		t.Fatalf("expected built-in contracts registered, got %v", names)
	}
}

func TestContractRegistryRegisterOverridesAndDispatches(t *testing.T) {
	cr := NewContractRegistry()
	cr.Register("Echo", func(args []any) (any, error) {
		return args[0], nil
	})
	result, err := cr.Invoke("Echo", []any{"hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hello" {
		t.Fatalf("expected echo of input, got %v", result)
	}
}
