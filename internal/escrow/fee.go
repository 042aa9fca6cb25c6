package escrow

// CollectedFee returns the platform's share of a pool at settlement:
// pool * feePercentage / 100 with integer division, rounding down.
// Rounding always favors the winner; the platform loses at most
// (pool mod 100) units relative to an exact split.
func CollectedFee(pool, feePercentage int64) int64 {
	return pool * feePercentage / 100
}

// SplitPool divides a pool between the winner and the platform.
// winnerPayout + collectedFee == pool holds exactly for every
// pool >= 0 and feePercentage in [0,100].
func SplitPool(pool, feePercentage int64) (winnerPayout, collectedFee int64) {
	collectedFee = CollectedFee(pool, feePercentage)
	winnerPayout = pool - collectedFee
	return winnerPayout, collectedFee
}

// ValidFeePercentage reports whether p is a usable platform fee.
func ValidFeePercentage(p int64) bool {
	return p >= 0 && p <= 100
}
