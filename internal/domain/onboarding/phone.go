package onboarding

import "strings"

type Phone struct {
	CountryCode string
	Number      string
}

// NormalizePhone splits a phone number into "+<dial>" and the local part. The dial code is
// only removed from numbers written in international form ("+" or "00" prefix), so running
// it again on its own output leaves the number unchanged. Leading zeros of the local part
// are dropped.
func NormalizePhone(combined, dialCode string) Phone {
	trimmed := strings.TrimSpace(combined)
	local := onlyDigits(trimmed)
	dial := onlyDigits(dialCode)

	international := strings.HasPrefix(trimmed, "+")
	if strings.HasPrefix(trimmed, "00") {
		international = true
		local = local[2:]
	}
	if international && dial != "" && strings.HasPrefix(local, dial) {
		local = local[len(dial):]
	}
	return newPhone(dial, strings.TrimLeft(local, "0"))
}

func newPhone(dial, local string) Phone {
	out := Phone{Number: local}
	if dial != "" {
		out.CountryCode = "+" + dial
	}
	return out
}

func onlyDigits(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
