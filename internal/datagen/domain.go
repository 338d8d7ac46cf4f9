package datagen

import "github.com/k0kubun/rqg/internal/entropy"

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

var emailDomains = []string{"example.com", "mail.test", "example.org", "corp.test"}

func emailDomain(h *entropy.Handle) string {
	return emailDomains[h.Choice(len(emailDomains))]
}

func genPhone(h *entropy.Handle) string {
	return formatPhone(h.Randint(200, 999), h.Randint(200, 999), h.Randint(1000, 9999))
}

func formatPhone(area, exch, line int64) string {
	return padInt(area, 3) + "-" + padInt(exch, 3) + "-" + padInt(line, 4)
}

func padInt(v int64, width int) string {
	s := itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

var firstNames = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi", "Ivan", "Judy"}
var lastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}

func genPersonName(h *entropy.Handle) string {
	return firstNames[h.Choice(len(firstNames))] + " " + lastNames[h.Choice(len(lastNames))]
}

var streetSuffixes = []string{"St", "Ave", "Blvd", "Rd", "Ln", "Way"}

func streetSuffix(h *entropy.Handle) string {
	return streetSuffixes[h.Choice(len(streetSuffixes))]
}

var cities = []string{"Springfield", "Riverside", "Franklin", "Greenville", "Fairview", "Salem", "Madison"}

func genCity(h *entropy.Handle) string {
	return cities[h.Choice(len(cities))]
}

var states = []string{"CA", "NY", "TX", "WA", "OR", "CO", "IL", "MA"}

func genState(h *entropy.Handle) string {
	return states[h.Choice(len(states))]
}

var countries = []string{"US", "CA", "GB", "DE", "FR", "JP", "AU"}

func genCountry(h *entropy.Handle) string {
	return countries[h.Choice(len(countries))]
}

func genCode(h *entropy.Handle) string {
	const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = alnum[h.Choice(len(alnum))]
	}
	return string(b)
}
