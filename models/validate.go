package models

import (
	"net"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/misha1235000/SpikeServer/errors"
)

var (
	nameRe     = regexp.MustCompile(`^[A-Za-z0-9]{4,30}$`)
	hostnameRe = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)(\.[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*$`)
	scopeRe    = regexp.MustCompile(`^[A-Za-z0-9:._-]{1,64}$`)
)

// NormalizeName validates a client name and returns it with the first
// character upper-cased and the rest lower-cased.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !nameRe.MatchString(name) {
		return "", errors.InvalidParameter(errors.CodeInvalidName, "Client name must be 4 to 30 alphanumeric characters.")
	}
	r := []rune(strings.ToLower(name))
	r[0] = unicode.ToUpper(r[0])
	return string(r), nil
}

// ValidateHostURI checks that u is an https origin: https://host[:port] with
// no path, query or fragment.
func ValidateHostURI(u string) error {
	rest, ok := strings.CutPrefix(u, "https://")
	if !ok || rest == "" {
		return invalidHost(u)
	}
	host, port := rest, ""
	if i := strings.LastIndexByte(rest, ':'); i >= 0 {
		host, port = rest[:i], rest[i+1:]
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 || strings.HasPrefix(port, "0") {
			return invalidHost(u)
		}
	}
	if len(host) > 253 {
		return invalidHost(u)
	}
	if net.ParseIP(host) == nil && !hostnameRe.MatchString(host) {
		return invalidHost(u)
	}
	return nil
}

func invalidHost(u string) error {
	return errors.InvalidParameter(errors.CodeInvalidHostURI, "Host uri "+strconv.Quote(u)+" is not a valid https origin.")
}

// ValidateHostURIs validates every uri and rejects duplicates within the set.
func ValidateHostURIs(uris []string) error {
	if len(uris) == 0 {
		return errors.InvalidParameter(errors.CodeInvalidHostURI, "At least one host uri is required.")
	}
	seen := make(map[string]struct{}, len(uris))
	for _, u := range uris {
		if err := ValidateHostURI(u); err != nil {
			return err
		}
		key := strings.ToLower(u)
		if _, dup := seen[key]; dup {
			return errors.InvalidParameter(errors.CodeDuplicateHostURI, "Host uri "+strconv.Quote(u)+" appears more than once.")
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ValidateScopeValue checks a scope token.
func ValidateScopeValue(v string) error {
	if !scopeRe.MatchString(v) {
		return errors.InvalidParameter(errors.CodeInvalidScope, "Scope value must be 1 to 64 characters of letters, digits, ':', '.', '_' or '-'.")
	}
	return nil
}
