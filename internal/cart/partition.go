package cart

// anonymousKey is the well-known storage key of the pre-login cart.
const anonymousKey = "cart"

// PartitionID names one of the two storage partitions a cart can live in:
// the single anonymous partition, or the partition of a signed-in user.
type PartitionID struct {
	userID string
}

func Anonymous() PartitionID {
	return PartitionID{}
}

func ForUser(userID string) PartitionID {
	return PartitionID{userID: userID}
}

func (p PartitionID) IsAnonymous() bool {
	return p.userID == ""
}

// Key returns the storage key backing this partition.
func (p PartitionID) Key() string {
	if p.userID == "" {
		return anonymousKey
	}
	return anonymousKey + "_" + p.userID
}
