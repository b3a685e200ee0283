package checkout

const (
	// UnknownSellerID buckets line items whose seller reference is missing.
	UnknownSellerID   = "unknown"
	unknownSellerName = "Unknown seller"
)

// BuildStoreGroups partitions line items into one group per seller,
// preserving first-seen seller order. Pure and idempotent: the same input
// always yields structurally identical groups. Item subtotals are
// recomputed from unit price and quantity on the way in.
func BuildStoreGroups(items []LineItem) []*StoreGroup {
	groups := make([]*StoreGroup, 0, len(items))
	index := make(map[string]*StoreGroup, len(items))

	for _, item := range items {
		sellerID := item.SellerID
		sellerName := item.SellerName
		if sellerID == "" {
			sellerID = UnknownSellerID
			sellerName = unknownSellerName
		}

		group, ok := index[sellerID]
		if !ok {
			group = &StoreGroup{SellerID: sellerID, SellerName: sellerName}
			index[sellerID] = group
			groups = append(groups, group)
		}

		item.SellerID = sellerID
		if item.SellerName == "" {
			item.SellerName = sellerName
		}
		item.SubtotalIDR = item.ComputedSubtotal()
		group.Items = append(group.Items, item)
		group.SubtotalIDR += item.SubtotalIDR
	}

	return groups
}
