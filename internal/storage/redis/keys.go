package redis

import "fmt"

// Key prefix for all credential data
const keyPrefix = "gatehouse"

// userKey returns the Redis key for a user record
func userKey(username string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, username)
}

// denylistKey returns the Redis key for the common-password set
func denylistKey() string {
	return fmt.Sprintf("%s:denylist", keyPrefix)
}
