package snapshot

import "strconv"

// Category identifies one of the cache's top-level channel directories.
type Category string

const (
	CategoryTicker  Category = "ticker"
	CategoryOrder   Category = "order"
	CategoryAccount Category = "account"
)

// Categories lists every channel category, in directory-creation order.
var Categories = []Category{CategoryTicker, CategoryOrder, CategoryAccount}

// Key identifies a snapshot channel: a category plus an optional sub-key.
// Only order channels carry a sub-key (symbol + order ID); the ticker table
// and the account each use a single shared channel per category.
type Key struct {
	Category Category
	Prefix   string // "" for ticker/account; "<symbol>_<orderID>" for orders
}

// TickerKey returns the shared ticker-table channel.
func TickerKey() Key {
	return Key{Category: CategoryTicker}
}

// AccountKey returns the shared account channel.
func AccountKey() Key {
	return Key{Category: CategoryAccount}
}

// OrderKey returns the per-order channel for one symbol + order ID.
func OrderKey(symbol string, orderID int64) Key {
	return Key{
		Category: CategoryOrder,
		Prefix:   symbol + "_" + strconv.FormatInt(orderID, 10),
	}
}

// CategoryKey returns the channel covering an entire category, with no
// sub-key filter. For the order category this matches every order channel;
// it is what purge sweeps operate on.
func CategoryKey(c Category) Key {
	return Key{Category: c}
}

// String renders the key for log output.
func (k Key) String() string {
	if k.Prefix == "" {
		return string(k.Category)
	}
	return string(k.Category) + "/" + k.Prefix
}
