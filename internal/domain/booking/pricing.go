package booking

// ComputePrice is the pricing aggregator: the base price fixed at creation plus
// every confirmed extra service. Pending extras never count.
func ComputePrice(basePriceCents int64, extras []ExtraServiceRequest) int64 {
	total := basePriceCents
	for _, e := range extras {
		if e.Status == ExtraConfirmed {
			total += e.PriceCents
		}
	}
	return total
}
