package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func registerTestPanel(t *testing.T, l *Ledger, panelID, owner string) decimal.Decimal {
	t.Helper()
	issuance, err := l.RegisterPanel(PanelRecord{
		PanelID:                     panelID,
		ProductionDate:              time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NominalEfficiencyPct:        20,
		SizeM2:                      2,
		Manufacturer:                "Acme",
		ManufacturingFootprintKgCO2: 800,
		LifetimeYears:               20,
		CarbonReductionFactor:       0.4,
		Owner:                       owner,
	})
	if err != nil {
		t.Fatalf("RegisterPanel failed: %v", err)
	}
	return issuance
}

func addValidSample(t *testing.T, l *Ledger, panelID string) {
	t.Helper()
	if err := l.AddSample(InverterSample{
		InverterID:         "inv-1",
		PanelID:            panelID,
		Timestamp:          time.Now().UTC(),
		PowerOutputKw:      3,
		IrradianceWPerM2:   800,
		ModuleTemperatureC: 30,
		EnergyGeneratedKwh: 10,
		LocationTag:        "上海",
		SignatureBytes:     hexRun(64),
	}); err != nil {
		t.Fatalf("AddSample failed: %v", err)
	}
}

func submitValidTx(t *testing.T, l *Ledger, sender, receiver string, amount int64) string {
	t.Helper()
	txid, err := l.SubmitTransaction(sender, receiver, decimal.NewFromInt(amount), "", hexRun(128))
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}
	return txid
}

// TestRegisterPanelDuplicateRejected reproduces S2 from spec §8.
func TestRegisterPanelDuplicateRejected(t *testing.T) {
	l := NewLedger()
	registerTestPanel(t, l, "panel-dup", "alice")
	_, err := l.RegisterPanel(PanelRecord{PanelID: "panel-dup", Owner: "bob"})
	if !errors.Is(err, ErrPanelAlreadyRegistered) {
		t.Fatalf("expected ErrPanelAlreadyRegistered, got %v", err)
	}
}

// TestSubmitTransactionInsufficientBalance reproduces S3 from spec §8.
func TestSubmitTransactionInsufficientBalance(t *testing.T) {
	l := NewLedger()
	_, err := l.SubmitTransaction("nobody", "bob", decimal.NewFromInt(10), "", hexRun(128))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

// TestSubmitTransactionReservationPreventsDoubleSpend verifies invariant I3:
// two accepted-but-unmined transactions from the same sender cannot jointly
// overdraw the sender's balance.
func TestSubmitTransactionReservationPreventsDoubleSpend(t *testing.T) {
	l := NewLedger()
	issuance := registerTestPanel(t, l, "panel-i3", "alice")

	submitValidTx(t, l, "alice", "bob", issuance.IntPart())

	_, err := l.SubmitTransaction("alice", "bob", decimal.NewFromInt(1), "", hexRun(128))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected second transaction to be rejected by reservation accounting, got %v", err)
	}
}

func TestAddSampleRejectsBadSignature(t *testing.T) {
	l := NewLedger()
	err := l.AddSample(InverterSample{PanelID: "p1", SignatureBytes: "bad"})
	if !errors.Is(err, ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestMineWithoutPendingWorkFails(t *testing.T) {
	l := NewLedger()
	_, _, err := l.Mine("miner1")
	if !errors.Is(err, ErrEmptyPending) {
		t.Fatalf("expected ErrEmptyPending, got %v", err)
	}
}

// TestMineSamplesFlow exercises a full carbon-aware mining cycle end to end.
func TestMineSamplesFlow(t *testing.T) {
	l := NewLedger()
	registerTestPanel(t, l, "panel-mine", "alice")
	addValidSample(t, l, "panel-mine")

	block, reward, err := l.Mine("minerA")
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	if block.Index != 1 {
		t.Fatalf("expected block index 1, got %d", block.Index)
	}
	if block.Kind != PayloadSamples {
		t.Fatalf("expected PayloadSamples, got %v", block.Kind)
	}
	if block.TotalCarbonReduction <= 0 {
		t.Fatalf("expected positive total reduction")
	}
	if !reward.Equal(BlockRewardAt(1)) {
		t.Fatalf("reward = %s, want %s", reward.String(), BlockRewardAt(1).String())
	}
	if got := l.Balance("minerA"); !got.Equal(reward) {
		t.Fatalf("miner balance = %s, want %s", got.String(), reward.String())
	}
}

// TestPayloadKindSelectionPrioritizesSamples verifies the documented
// payload-kind selection rule: when both samples and transactions are
// pending, samples are mined first and the leftover transactions persist
// into the next mining cycle instead of being dropped.
func TestPayloadKindSelectionPrioritizesSamples(t *testing.T) {
	l := NewLedger()
	registerTestPanel(t, l, "panel-kind", "alice")
	addValidSample(t, l, "panel-kind")
	submitValidTx(t, l, "alice", "bob", 1)

	block1, _, err := l.Mine("minerA")
	if err != nil {
		t.Fatalf("first Mine failed: %v", err)
	}
	if block1.Kind != PayloadSamples {
		t.Fatalf("expected first mined block to carry samples, got %v", block1.Kind)
	}

	l.mu.Lock()
	state := l.state
	pendingTxs := len(l.txs)
	l.mu.Unlock()
	if state != PendingSealed {
		t.Fatalf("expected Sealed state with leftover transactions, got %v", state)
	}
	if pendingTxs != 1 {
		t.Fatalf("expected leftover transaction to survive the cycle, got %d", pendingTxs)
	}

	submitValidTx(t, l, "alice", "bob", 1)

	block2, _, err := l.Mine("minerB")
	if err != nil {
		t.Fatalf("second Mine failed: %v", err)
	}
	if block2.Kind != PayloadTransactions {
		t.Fatalf("expected second mined block to carry transactions, got %v", block2.Kind)
	}
	if len(block2.Transactions) != 2 {
		t.Fatalf("expected both the leftover and new transaction to be mined together, got %d", len(block2.Transactions))
	}
	if got := l.Balance("bob"); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("bob balance = %s, want 2", got.String())
	}
}

// TestCommitMineDetectsStaleTip exercises the defensive stale-tip guard: if
// the chain tip moves between BeginMine and CommitMine, the in-flight block
// is discarded and the pending pool reverts to Accumulating.
func TestCommitMineDetectsStaleTip(t *testing.T) {
	l := NewLedger()
	registerTestPanel(t, l, "panel-stale", "alice")
	addValidSample(t, l, "panel-stale")

	ws, err := l.BeginMine("miner1")
	if err != nil {
		t.Fatalf("BeginMine failed: %v", err)
	}

	l.mu.Lock()
	tip := l.chain[len(l.chain)-1]
	l.chain = append(l.chain, Block{Index: tip.Index + 1, PreviousHash: tip.Hash, Hash: "deadbeef"})
	l.mu.Unlock()

	if err := ws.Search(nil); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	_, _, err = l.CommitMine(ws)
	if !errors.Is(err, ErrStaleTip) {
		t.Fatalf("expected ErrStaleTip, got %v", err)
	}

	l.mu.Lock()
	state := l.state
	l.mu.Unlock()
	if state != PendingAccumulating {
		t.Fatalf("expected state reverted to Accumulating, got %v", state)
	}
}

func TestAbortMineRevertsToAccumulatingWithoutMutatingChain(t *testing.T) {
	l := NewLedger()
	registerTestPanel(t, l, "panel-abort", "alice")
	addValidSample(t, l, "panel-abort")

	before := l.ChainLength()
	ws, err := l.BeginMine("miner1")
	if err != nil {
		t.Fatalf("BeginMine failed: %v", err)
	}
	ws.difficulty = 64 // practically unreachable, forces the cancel-poll tick to fire first
	cancel := make(chan struct{})
	close(cancel)
	if err := ws.Search(cancel); err == nil {
		t.Fatalf("expected cancellation error from a trivially-unreachable difficulty")
	}
	l.AbortMine()

	if l.ChainLength() != before {
		t.Fatalf("chain length changed after an aborted mine")
	}
	l.mu.Lock()
	state := l.state
	l.mu.Unlock()
	if state != PendingAccumulating {
		t.Fatalf("expected Accumulating after abort, got %v", state)
	}
}

func TestValidateDetectsTamperedHash(t *testing.T) {
	l := NewLedger()
	registerTestPanel(t, l, "panel-validate", "alice")
	addValidSample(t, l, "panel-validate")
	if _, _, err := l.Mine("miner1"); err != nil {
		t.Fatalf("Mine failed: %v", err)
	}

	l.mu.Lock()
	l.chain[1].Hash = "0000000000000000000000000000000000000000000000000000000000dead"
	l.mu.Unlock()

	if err := l.Validate(); !errors.Is(err, ErrChainInvalid) {
		t.Fatalf("expected ErrChainInvalid, got %v", err)
	}
}

func TestValidateAcceptsFreshLedger(t *testing.T) {
	l := NewLedger()
	if err := l.Validate(); err != nil {
		t.Fatalf("expected a fresh genesis-only ledger to validate, got %v", err)
	}
}
