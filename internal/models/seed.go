package models

import "strings"

// hardwiredOwners are usernames that hold OWNER rank no matter what the
// stored row says, and whose accounts cannot be deleted.
var hardwiredOwners = []string{"dhairya", "dakshith"}

// DefaultOwnerAccounts returns the accounts seeded when the account store is
// empty. The same pairs double as emergency-unlock fallbacks so an operator
// can always recover a locked system, even with a corrupted store.
func DefaultOwnerAccounts() []AdminAccount {
	return []AdminAccount{
		{Username: "Dhairya", Password: "67", Rank: RankOwner},
		{Username: "Dakshith", Password: "67", Rank: RankOwner},
	}
}

// IsHardwiredOwner reports whether the username is pinned to OWNER rank.
func IsHardwiredOwner(username string) bool {
	name := strings.ToLower(username)
	for _, owner := range hardwiredOwners {
		if name == owner {
			return true
		}
	}
	return false
}
