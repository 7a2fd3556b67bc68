package settlement

import "regexp" // Address format check

// AddressValidator reports whether a destination address is well-formed
// for the target settlement network.
type AddressValidator func(address string) bool

// hexAddressPattern matches a 0x-prefixed 40-digit hex address
var hexAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// HexAddressValidator accepts standard 0x-prefixed hex addresses
func HexAddressValidator(address string) bool {
	return hexAddressPattern.MatchString(address)
}
