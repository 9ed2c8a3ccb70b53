package core

import "math"

// MiningParams are the dynamic-PoW tuning knobs from spec §4.4, overridable
// via config.Config.Pow.
type MiningParams struct {
	Base        float64
	Sensitivity float64
	MinDiff     int
	MaxDiff     int
}

// DefaultMiningParams returns the spec-mandated defaults: BASE=4,
// SENSITIVITY=0.8, MIN_D=2, MAX_D=8.
func DefaultMiningParams() MiningParams {
	return MiningParams{Base: 4, Sensitivity: 0.8, MinDiff: 2, MaxDiff: 8}
}

// CalculateDifficulty derives the mining difficulty for a block given its
// total carbon reduction, the ledger's reference reduction, and the block's
// primary region type. Difficulty is deliberately decreasing in reduction:
// more credited reduction buys a cheaper block.
func CalculateDifficulty(reduction, reference float64, regionType RegionType, params MiningParams) int {
	if reference <= 0 {
		reference = 1
	}
	reductionFactor := math.Log(reduction/reference + 1)
	regionFactor := RegionCompensation(regionType)
	adjustment := params.Base * (1 - params.Sensitivity*reductionFactor*regionFactor)
	d := int(math.Round(adjustment))
	if d < params.MinDiff {
		d = params.MinDiff
	}
	if d > params.MaxDiff {
		d = params.MaxDiff
	}
	return d
}

// cancelPollInterval is the nonce-loop granularity at which a mining task
// polls for cancellation (spec §5: "at least every 2^16 iterations").
const cancelPollInterval = 1 << 16

// MineNonce searches for the first nonce producing a hash with at least
// `difficulty` leading hex zeros, mutating b.Nonce as it searches. The
// ledger lock must not be held during this call (spec §5): the caller
// copies its mining workspace into b beforehand and commits separately.
func MineNonce(b *Block, difficulty int, cancel <-chan struct{}) (string, error) {
	var nonce uint64 = 1
	for {
		if nonce%cancelPollInterval == 0 {
			select {
			case <-cancel:
				return "", ErrMiningCancelled
			default:
			}
		}
		b.Nonce = nonce
		hash := ComputeHash(b)
		if hasLeadingZeros(hash, difficulty) {
			return hash, nil
		}
		nonce++
	}
}

// BlendReference applies the low-pass filter used to re-smooth the
// reference reduction every 10 blocks (spec §4.4).
func BlendReference(old, recentMean float64) float64 {
	return 0.7*old + 0.3*recentMean
}

// RecomputeReferenceReduction replays the reference-reduction update rule
// (spec §4.4) over a trusted chain, starting from the given seed. It is
// used after loading a snapshot, since the reference reduction is a pure
// function of block history and is not one of the three persisted
// documents (spec §6).
func RecomputeReferenceReduction(chain []Block, seed float64) float64 {
	ref := seed
	for i := 1; i < len(chain); i++ {
		if chain[i].Index == 0 || chain[i].Index%10 != 0 {
			continue
		}
		window := 10
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		count := 0
		for j := start; j <= i; j++ {
			sum += chain[j].TotalCarbonReduction
			count++
		}
		mean := 0.0
		if count > 0 {
			mean = sum / float64(count)
		}
		ref = BlendReference(ref, mean)
	}
	return ref
}
