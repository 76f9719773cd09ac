package domain

import "regexp"

var phonePattern = regexp.MustCompile(`^0[67][0-9]{8}$`)

// ValidPhone accepts Tanzanian mobile numbers in local format: 06/07
// followed by eight digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// PlaceholderEmail is the contact address sent to the gateway, which
// requires one even though buyers only give a phone number.
func PlaceholderEmail(phone string) string {
	return phone + "@example.com"
}
