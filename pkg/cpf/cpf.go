// Package cpf validates the Brazilian CPF identifier used as the
// watchlist partition key.
package cpf

// Validate reports whether id is a valid CPF. Formatting characters
// (dots, dash, spaces) are ignored. A CPF is eleven digits where the
// last two are check digits: each is 11 minus the weighted sum of the
// preceding digits modulo 11, mapped to 0 when the remainder is below 2.
// Sequences of eleven identical digits pass the checksum but are not
// assigned, so they are rejected.
func Validate(id string) bool {
	digits := make([]int, 0, 11)
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == '.' || r == '-' || r == ' ':
			// formatting only
		default:
			return false
		}
	}

	if len(digits) != 11 {
		return false
	}

	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	if checkDigit(digits[:9]) != digits[9] {
		return false
	}
	return checkDigit(digits[:10]) == digits[10]
}

// checkDigit computes a CPF check digit over the given digits, using
// descending weights starting at len(digits)+1.
func checkDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, d := range digits {
		sum += d * weight
		weight--
	}

	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}
