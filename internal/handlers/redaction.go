package handlers

import "strings"

func redactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[redacted]"
	}

	local := parts[0]
	domain := parts[1]
	if local == "" {
		return "***@" + domain
	}

	runes := []rune(local)
	return string(runes[0]) + "***@" + domain
}

// redactPhone keeps the last two digits.
func redactPhone(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}

	runes := []rune(number)
	if len(runes) <= 4 {
		return "[redacted]"
	}
	return "***" + string(runes[len(runes)-2:])
}

func redactAddress(channel, address string) string {
	if channel == "sms" {
		return redactPhone(address)
	}
	return redactEmail(address)
}

func redactAll(channel string, addresses []string) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = redactAddress(channel, a)
	}
	return out
}
