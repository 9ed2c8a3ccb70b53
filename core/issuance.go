package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// RewardHalvingPeriod is the block-height interval at which the mining
// reward halves.
const RewardHalvingPeriod = 210000

// MaxHalvings caps the number of halvings applied, after which the reward
// floors out rather than continuing to shrink indefinitely.
const MaxHalvings = 64

// InitialReward is the mining reward paid at height 0, before any halving.
var InitialReward = decimal.NewFromInt(50)

// issuanceFractionalDigits is the number of fractional digits amounts and
// balances carry (spec §9: decimal vs float boundary).
const issuanceFractionalDigits = 4

// CalculateIssuance computes the log-scaled initial token issuance credited
// to a panel owner at registration, per spec §4.3.
func CalculateIssuance(lifetimeReduction, efficiencyPct float64, lifetimeYears int) decimal.Decimal {
	effFactor := math.Pow(efficiencyPct/20, 1.5)
	lifeFactor := 1 + math.Log(float64(lifetimeYears))/10
	raw := lifetimeReduction * effFactor * lifeFactor / 100
	issuance := math.Log10(raw+1) * 100
	return decimal.NewFromFloat(issuance).Round(issuanceFractionalDigits)
}

// BlockRewardAt returns the mining reward for the block at height h,
// halving every RewardHalvingPeriod blocks, capped at MaxHalvings.
func BlockRewardAt(h uint64) decimal.Decimal {
	halvings := h / RewardHalvingPeriod
	if halvings > MaxHalvings {
		halvings = MaxHalvings
	}
	divisor := decimal.NewFromInt(1)
	for i := uint64(0); i < halvings; i++ {
		divisor = divisor.Mul(decimal.NewFromInt(2))
	}
	return InitialReward.Div(divisor).Round(issuanceFractionalDigits)
}
