package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SystemAccount is the sentinel sender denoting issuance or mining reward.
// It is never a real account and is never debited.
const SystemAccount = "system"

// PanelRecord's registration fields are immutable after registration; only
// the supplemental Verified/Verifications fields change afterwards, through
// Ledger.AddVerification.
type PanelRecord struct {
	PanelID                    string    `json:"panelId"`
	ProductionDate             time.Time `json:"productionDate"`
	NominalEfficiencyPct       float64   `json:"nominalEfficiencyPct"`
	SizeM2                     float64   `json:"sizeM2"`
	Manufacturer               string    `json:"manufacturer"`
	ManufacturingFootprintKgCO2 float64  `json:"manufacturingFootprintKgco2"`
	LifetimeYears              int       `json:"lifetimeYears"`
	CarbonReductionFactor      float64   `json:"carbonReductionFactor"`
	Owner                      string    `json:"owner"`

	// CarbonIntensity is derived at registration (manufacturing footprint
	// amortized over lifetime energy, spec §4.2) and cached here so
	// real-time sample crediting never depends on a config value that may
	// change after registration.
	CarbonIntensity float64 `json:"carbonIntensity"`

	// Verifications is supplemental bookkeeping (SPEC_FULL.md §5.1): it
	// never feeds issuance or mining math.
	Verified      bool                 `json:"verified"`
	Verifications []VerificationRecord `json:"verifications,omitempty"`
}

// VerificationRecord is a third-party attestation attached to a panel.
type VerificationRecord struct {
	ID        string    `json:"id"`
	Verifier  string    `json:"verifier"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// InverterSample is owned by the pending pool until mined.
type InverterSample struct {
	InverterID         string    `json:"inverterId"`
	PanelID            string    `json:"panelId"`
	Timestamp          time.Time `json:"timestamp"`
	PowerOutputKw      float64   `json:"powerOutputKw"`
	IrradianceWPerM2   float64   `json:"irradianceWPerM2"`
	ModuleTemperatureC float64   `json:"moduleTemperatureC"`
	EnergyGeneratedKwh float64   `json:"energyGeneratedKwh"`
	LocationTag        string    `json:"locationTag"`
	SignatureBytes     string    `json:"signatureBytes"`
}

// Transaction is owned by the pending pool, then by the block it is mined
// into. Sender == SystemAccount denotes issuance or a mining reward.
type Transaction struct {
	TxID      string          `json:"txid"`
	Sender    string          `json:"sender"`
	Receiver  string          `json:"receiver"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	PanelID   string          `json:"panelId,omitempty"`
	Signature string          `json:"signature"`
}

// PayloadKind tags which variant of a Block's payload is populated.
type PayloadKind int

const (
	PayloadSamples PayloadKind = iota
	PayloadTransactions
)

// Block is the chain's single block type with a tagged-variant payload:
// either a batch of inverter telemetry (carbon-aware) or a batch of
// transactions (economic). Validation and hashing dispatch on Kind.
type Block struct {
	Index               uint64            `json:"index"`
	Timestamp           time.Time         `json:"timestamp"`
	PreviousHash        string            `json:"previousHash"`
	Hash                string            `json:"hash"`
	Nonce               uint64            `json:"nonce"`
	Miner               string            `json:"miner"`
	TotalCarbonReduction float64          `json:"totalCarbonReduction"`
	Difficulty          int               `json:"difficulty"`
	Kind                PayloadKind       `json:"kind"`
	Samples             []InverterSample  `json:"samples,omitempty"`
	Transactions        []Transaction     `json:"transactions,omitempty"`
}
