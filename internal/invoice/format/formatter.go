package format

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const DefaultInvoiceNumberTemplate = "INV-{YYYY}{MM}-{ULID}"

var (
	ErrEmptyTemplate = errors.New("empty_invoice_number_template")
	ErrEmptySuffix   = errors.New("empty_invoice_number_suffix")
	ErrUnknownToken  = errors.New("unknown_invoice_number_token")
)

var tokenPattern = regexp.MustCompile(`\{[^{}]*\}`)

// FormatInvoiceNumber expands the date tokens of template for issuedAt (UTC)
// and substitutes {ULID} with suffix.
func FormatInvoiceNumber(template string, issuedAt time.Time, suffix string) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}
	suffix = strings.ToUpper(strings.TrimSpace(suffix))

	issuedAt = issuedAt.UTC()
	var unknown []string
	out := tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		switch token {
		case "{YYYY}":
			return issuedAt.Format("2006")
		case "{YY}":
			return issuedAt.Format("06")
		case "{MM}":
			return issuedAt.Format("01")
		case "{DD}":
			return issuedAt.Format("02")
		case "{ULID}":
			if suffix == "" {
				unknown = append(unknown, token)
			}
			return suffix
		default:
			unknown = append(unknown, token)
			return token
		}
	})
	if len(unknown) > 0 {
		if suffix == "" && unknown[0] == "{ULID}" {
			return "", ErrEmptySuffix
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownToken, strings.Join(unknown, ","))
	}
	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("%w: unbalanced braces in %q", ErrUnknownToken, template)
	}
	return out, nil
}
