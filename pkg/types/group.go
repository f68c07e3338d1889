package types

import (
	"math/big"
	"strings"
	"time"
)

// Item is a single expense line inside a group
type Item struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"` // smallest token unit
	HasPaid bool   `json:"haspaid"`
	Payer   string `json:"payer"`
}

// Group is an expense group as returned by the backend
type Group struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Owner   string   `json:"owner"`
	Items   []Item   `json:"items"`
	Members []string `json:"members"`
}

// UnpaidItemsFor returns the items assigned to the given payer that have not
// been paid yet. Address comparison is case-insensitive.
func (g *Group) UnpaidItemsFor(payer string) []Item {
	items := make([]Item, 0)
	for _, item := range g.Items {
		if item.HasPaid {
			continue
		}
		if strings.EqualFold(item.Payer, payer) {
			items = append(items, item)
		}
	}
	return items
}

// TotalOwed sums the price of the given items
func TotalOwed(items []Item) *big.Int {
	total := new(big.Int)
	for _, item := range items {
		total.Add(total, big.NewInt(item.Price))
	}
	return total
}

// ItemIDs returns the ids of the given items
func ItemIDs(items []Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Invite is the backend's response to an invite-code request
type Invite struct {
	InviteCode string    `json:"inviteCode"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// CreateGroupRequest is the payload for creating a new expense group
type CreateGroupRequest struct {
	Title   string   `json:"title"`
	Members []string `json:"members"`
	Items   []Item   `json:"items"`
}
