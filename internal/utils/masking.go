package utils

// MaskSecret hides all but the first 3 and last 4 characters of a secret or token
// so that log lines stay correlatable without leaking credentials.
// Values of 8 characters or fewer are fully masked.
func MaskSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:3] + "***" + secret[len(secret)-4:]
}
