package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PendingState is the state of the pending pool for the current block
// cycle: Empty -> Accumulating -> Mining -> Sealed (spec §4.5).
type PendingState int

const (
	PendingEmpty PendingState = iota
	PendingAccumulating
	PendingMining
	PendingSealed
)

func (s PendingState) String() string {
	switch s {
	case PendingEmpty:
		return "Empty"
	case PendingAccumulating:
		return "Accumulating"
	case PendingMining:
		return "Mining"
	case PendingSealed:
		return "Sealed"
	default:
		return "Unknown"
	}
}

// GenesisTimestamp is the fixed genesis block timestamp from spec §6.
var GenesisTimestamp = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// Ledger is the single-writer authority over the chain, pending pool,
// balances and panel registry (spec §5). It is safe for concurrent use: the
// mutex guards all fields except during the CPU-bound nonce search, which
// runs lock-free against a copied mining workspace.
type Ledger struct {
	mu sync.Mutex

	chain   []Block
	state   PendingState
	samples []InverterSample
	txs     []Transaction

	balances        map[string]decimal.Decimal
	pendingReserved map[string]decimal.Decimal
	registry        map[string]PanelRecord

	gridFactors        map[string]float64
	referenceReduction float64
	solarIrradiance    float64
	miningParams       MiningParams

	// IssuanceLog records issuance credits for audit/CLI display. It is
	// never replayed into balances; balances are credited directly and
	// immediately at registration (spec §9 open-question resolution).
	IssuanceLog []Transaction

	log *logrus.Logger
}

// NewLedger constructs a ledger seeded with the genesis block and the
// default region/grid-factor tables, mirroring the teacher's
// logrus-instrumented constructors (core/coin.go, core/ledger.go).
func NewLedger() *Ledger {
	l := &Ledger{
		balances:           make(map[string]decimal.Decimal),
		pendingReserved:    make(map[string]decimal.Decimal),
		registry:           make(map[string]PanelRecord),
		gridFactors:        DefaultGridFactors(),
		referenceReduction: 1000,
		solarIrradiance:    DefaultSolarIrradianceKwhPerM2Year,
		miningParams:       DefaultMiningParams(),
		log:                logrus.StandardLogger(),
	}
	genesis := Block{
		Index:        0,
		Timestamp:    GenesisTimestamp,
		PreviousHash: "0",
		Miner:        SystemAccount,
		Difficulty:   4,
		Kind:         PayloadSamples,
	}
	genesis.Hash = ComputeHash(&genesis)
	l.chain = []Block{genesis}
	return l
}

// SetGridFactors overrides the region -> emission-factor table, e.g. from
// config.Config.GridFactors (spec-extension, SPEC_FULL.md §5.2).
func (l *Ledger) SetGridFactors(factors map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for region, factor := range factors {
		l.gridFactors[region] = factor
	}
}

// SetSolarIrradiance overrides the default annual irradiance used at
// registration.
func (l *Ledger) SetSolarIrradiance(v float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.solarIrradiance = v
}

// SetMiningParams overrides the dynamic-PoW tuning knobs.
func (l *Ledger) SetMiningParams(p MiningParams) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.miningParams = p
}

// SetReferenceReduction seeds the reference reduction baseline.
func (l *Ledger) SetReferenceReduction(v float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.referenceReduction = v
}

// Height returns the current chain height (index of the tip).
func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chain[len(l.chain)-1].Index
}

// Tip returns a copy of the chain's tip block.
func (l *Ledger) Tip() Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chain[len(l.chain)-1]
}

// ChainLength returns the number of blocks in the chain, including genesis.
func (l *Ledger) ChainLength() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chain)
}

// BlockAt returns a copy of the block at the given index.
func (l *Ledger) BlockAt(index uint64) (Block, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index >= uint64(len(l.chain)) {
		return Block{}, false
	}
	return l.chain[index], true
}

// Balance returns the balance for the given account (zero default).
func (l *Ledger) Balance(account string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(account)
}

func (l *Ledger) balanceLocked(account string) decimal.Decimal {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return decimal.Zero
}

// Panel returns a copy of the registered panel, if any.
func (l *Ledger) Panel(panelID string) (PanelRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.registry[panelID]
	return p, ok
}

// RegisterPanel registers a new panel, crediting the owner with the
// log-scaled initial issuance atomically (spec §4.3). Registration fails
// with ErrPanelAlreadyRegistered if the panel_id is already used.
func (l *Ledger) RegisterPanel(p PanelRecord) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.registry[p.PanelID]; exists {
		return decimal.Zero, ErrPanelAlreadyRegistered
	}

	result := CalculateLifetimeReduction(p, l.solarIrradiance)
	p.CarbonIntensity = result.CarbonIntensity
	issuance := CalculateIssuance(result.LifetimeReduction, p.NominalEfficiencyPct, p.LifetimeYears)

	l.registry[p.PanelID] = p
	l.balances[p.Owner] = l.balanceLocked(p.Owner).Add(issuance)

	l.IssuanceLog = append(l.IssuanceLog, Transaction{
		TxID:      newTxID(),
		Sender:    SystemAccount,
		Receiver:  p.Owner,
		Amount:    issuance,
		Timestamp: time.Now().UTC(),
		PanelID:   p.PanelID,
	})

	l.log.Infof("ledger: registered panel %s for %s, issuance=%s", p.PanelID, p.Owner, issuance.String())
	return issuance, nil
}

// AddVerification records a supplemental verification entry for a panel
// (SPEC_FULL.md §5.1). It never affects issuance or mining.
func (l *Ledger) AddVerification(panelID string, v VerificationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.registry[panelID]
	if !ok {
		return ErrPanelUnknown
	}
	for _, existing := range p.Verifications {
		if existing.ID == v.ID {
			return fmt.Errorf("verification %s already exists", v.ID)
		}
	}
	v.Timestamp = time.Now().UTC()
	p.Verifications = append(p.Verifications, v)
	if v.Status == "verified" {
		p.Verified = true
	}
	l.registry[panelID] = p
	return nil
}

// AddSample enqueues telemetry into the pending pool. Samples are not gated
// on panel registration or region (unknown panels/regions are only skipped
// for crediting at block level); they are rejected only when the signature
// predicate fails or a mine is in progress.
func (l *Ledger) AddSample(s InverterSample) error {
	if !VerifySampleSignature(s.SignatureBytes) {
		return fmt.Errorf("%w: bad sample signature", ErrInvalidTransaction)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == PendingMining {
		return fmt.Errorf("ledger busy: mining in progress")
	}
	l.samples = append(l.samples, s)
	if l.state == PendingEmpty || l.state == PendingSealed {
		l.state = PendingAccumulating
	}
	return nil
}

// newTxID derives a transaction id as SHA-256(hex) of a freshly generated
// UUID, per spec §3.
func newTxID() string {
	return hashUUID(uuid.New())
}

// SubmitTransaction validates and enqueues a transaction into the pending
// pool, per the acceptance rules in spec §4.5. The returned txid is
// SHA-256 of a UUID generated at creation time.
func (l *Ledger) SubmitTransaction(sender, receiver string, amount decimal.Decimal, panelID, signature string) (string, error) {
	if sender == "" || receiver == "" {
		return "", fmt.Errorf("%w: empty sender or receiver", ErrInvalidTransaction)
	}
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if !VerifyTransactionSignature(signature) {
		return "", fmt.Errorf("%w: bad signature", ErrInvalidTransaction)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == PendingMining {
		return "", fmt.Errorf("ledger busy: mining in progress")
	}

	if sender != SystemAccount {
		reserved := l.pendingReserved[sender]
		available := l.balanceLocked(sender).Sub(reserved)
		if available.LessThan(amount) {
			return "", ErrInsufficientBalance
		}
		l.pendingReserved[sender] = reserved.Add(amount)
	}

	tx := Transaction{
		TxID:      newTxID(),
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
		PanelID:   panelID,
		Signature: signature,
	}
	l.txs = append(l.txs, tx)
	if l.state == PendingEmpty || l.state == PendingSealed {
		l.state = PendingAccumulating
	}
	l.log.Infof("ledger: accepted tx %s %s->%s amount=%s", tx.TxID, sender, receiver, amount.String())
	return tx.TxID, nil
}

// miningWorkspace is the lock-free snapshot handed to the nonce search.
type miningWorkspace struct {
	block          Block
	difficulty     int
	prevHash       string
	kindIsSamples  bool
	consumedTxs    []Transaction
	consumedSample []InverterSample
}

// BeginMine validates pending state and prepares a mining workspace without
// running the nonce search. It transitions the pool Accumulating -> Mining,
// or Sealed -> Mining when the previous block left an unselected queue
// pending.
func (l *Ledger) BeginMine(miner string) (*miningWorkspace, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hasPending := len(l.samples) > 0 || len(l.txs) > 0
	if !hasPending || (l.state != PendingAccumulating && l.state != PendingSealed) {
		return nil, ErrEmptyPending
	}

	tip := l.chain[len(l.chain)-1]

	var (
		kindIsSamples bool
		reduction     float64
		samplesCopy   []InverterSample
		txsCopy       []Transaction
	)
	if len(l.samples) > 0 {
		kindIsSamples = true
		samplesCopy = append([]InverterSample(nil), l.samples...)
		reduction = BlockTotalReduction(samplesCopy, l.registry, l.gridFactors)
	} else {
		txsCopy = append([]Transaction(nil), l.txs...)
	}

	var regionType RegionType = RegionTypeIII
	if kindIsSamples {
		regionType = ClassifyRegion(PrimaryRegion(samplesCopy))
	}
	difficulty := CalculateDifficulty(reduction, l.referenceReduction, regionType, l.miningParams)

	block := Block{
		Index:                tip.Index + 1,
		Timestamp:            time.Now().UTC(),
		PreviousHash:         tip.Hash,
		Miner:                miner,
		TotalCarbonReduction: reduction,
		Difficulty:           difficulty,
	}
	if kindIsSamples {
		block.Kind = PayloadSamples
		block.Samples = samplesCopy
	} else {
		block.Kind = PayloadTransactions
		block.Transactions = txsCopy
	}

	l.state = PendingMining
	return &miningWorkspace{
		block:          block,
		difficulty:     difficulty,
		prevHash:       tip.Hash,
		kindIsSamples:  kindIsSamples,
		consumedTxs:    txsCopy,
		consumedSample: samplesCopy,
	}, nil
}

// Search runs the CPU-bound nonce search without holding the ledger lock.
func (ws *miningWorkspace) Search(cancel <-chan struct{}) error {
	hash, err := MineNonce(&ws.block, ws.difficulty, cancel)
	if err != nil {
		return err
	}
	ws.block.Hash = hash
	return nil
}

// CommitMine re-acquires the lock and commits a completed mining workspace.
// If the chain tip moved since BeginMine, the block is discarded and
// ErrStaleTip is returned; pending state reverts to Accumulating so the
// caller may retry without losing pending data (spec §5). On a cancelled
// search, call AbortMine instead.
func (l *Ledger) CommitMine(ws *miningWorkspace) (Block, decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.chain[len(l.chain)-1]
	if tip.Hash != ws.prevHash {
		l.state = PendingAccumulating
		return Block{}, decimal.Zero, ErrStaleTip
	}

	if ws.kindIsSamples {
		l.samples = l.samples[len(ws.consumedSample):]
	} else {
		for _, tx := range ws.consumedTxs {
			if tx.Sender != SystemAccount {
				l.balances[tx.Sender] = l.balanceLocked(tx.Sender).Sub(tx.Amount)
				l.pendingReserved[tx.Sender] = l.pendingReserved[tx.Sender].Sub(tx.Amount)
			}
			l.balances[tx.Receiver] = l.balanceLocked(tx.Receiver).Add(tx.Amount)
		}
		l.txs = l.txs[len(ws.consumedTxs):]
	}

	l.chain = append(l.chain, ws.block)

	reward := BlockRewardAt(ws.block.Index)
	l.balances[ws.block.Miner] = l.balanceLocked(ws.block.Miner).Add(reward)

	if ws.block.Index > 0 && ws.block.Index%10 == 0 {
		mean := l.recentMeanReductionLocked(10)
		l.referenceReduction = BlendReference(l.referenceReduction, mean)
	}

	if len(l.samples) == 0 && len(l.txs) == 0 {
		l.state = PendingEmpty
	} else {
		l.state = PendingSealed
	}

	l.log.Infof("ledger: mined block %d hash=%s difficulty=%d reward=%s", ws.block.Index, ws.block.Hash, ws.block.Difficulty, reward.String())
	return ws.block, reward, nil
}

// AbortMine reverts pending state to Accumulating after a cancelled search,
// without mutating chain state (spec §5: cancelled mines never mutate
// chain state).
func (l *Ledger) AbortMine() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = PendingAccumulating
}

func (l *Ledger) recentMeanReductionLocked(window int) float64 {
	n := len(l.chain)
	start := n - window
	if start < 0 {
		start = 0
	}
	var sum float64
	count := 0
	for i := start; i < n; i++ {
		sum += l.chain[i].TotalCarbonReduction
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Mine is the convenience single-call entry point combining BeginMine,
// Search and CommitMine for callers that do not need to interleave other
// work with the nonce search.
func (l *Ledger) Mine(miner string) (Block, decimal.Decimal, error) {
	ws, err := l.BeginMine(miner)
	if err != nil {
		return Block{}, decimal.Zero, err
	}
	if err := ws.Search(nil); err != nil {
		l.AbortMine()
		return Block{}, decimal.Zero, err
	}
	return l.CommitMine(ws)
}

// Validate replays the full chain, checking hash linkage, hash
// recomputation, PoW, and per-item signature predicates. It returns on the
// first failing index (spec §4.5).
func (l *Ledger) Validate() error {
	l.mu.Lock()
	chain := append([]Block(nil), l.chain...)
	l.mu.Unlock()

	for i := 1; i < len(chain); i++ {
		b := chain[i]
		prev := chain[i-1]
		if b.PreviousHash != prev.Hash {
			return fmt.Errorf("%w: block %d previous_hash mismatch", ErrChainInvalid, i)
		}
		recomputed := ComputeHash(&b)
		if recomputed != b.Hash {
			return fmt.Errorf("%w: block %d hash mismatch", ErrChainInvalid, i)
		}
		if !hasLeadingZeros(b.Hash, b.Difficulty) {
			return fmt.Errorf("%w: block %d fails PoW", ErrChainInvalid, i)
		}
		switch b.Kind {
		case PayloadTransactions:
			for _, tx := range b.Transactions {
				if !VerifyTransactionSignature(tx.Signature) {
					return fmt.Errorf("%w: block %d transaction %s has bad signature", ErrChainInvalid, i, tx.TxID)
				}
			}
		case PayloadSamples:
			for _, s := range b.Samples {
				if !VerifySampleSignature(s.SignatureBytes) {
					return fmt.Errorf("%w: block %d sample %s has bad signature", ErrChainInvalid, i, s.InverterID)
				}
			}
		}
	}
	return nil
}
