package partition

import "hash/fnv"

// Count is the fixed number of logical partitions sales rows are spread over.
// Changing it reshuffles every stored partition_id.
const Count = 256

// For returns the partition ID for a seller.
// Same sellerID always maps to the same partition.
func For(sellerID string) int {
	h := fnv.New32a()
	h.Write([]byte(sellerID))
	return int(h.Sum32() % Count)
}
