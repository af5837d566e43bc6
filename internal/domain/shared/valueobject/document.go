package valueobject

import (
	"fmt"
	"strings"
)

// CEP is a Brazilian postal code stored as 8 digits
type CEP string

// NewCEP parses a CEP, accepting "01310-100", "01310100" or "01.310-100"
func NewCEP(raw string) (CEP, error) {
	digits := onlyDigits(raw)
	if len(digits) != 8 {
		return "", fmt.Errorf("CEP must have 8 digits, got %d", len(digits))
	}
	if digits == "00000000" {
		return "", fmt.Errorf("CEP cannot be all zeros")
	}
	return CEP(digits), nil
}

// String returns the bare digits
func (c CEP) String() string {
	return string(c)
}

// Formatted returns the CEP as 00000-000
func (c CEP) Formatted() string {
	if len(c) != 8 {
		return string(c)
	}
	return string(c[:5]) + "-" + string(c[5:])
}

// CNPJ is a Brazilian company registry number stored as 14 digits
type CNPJ string

var (
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// NewCNPJ parses a CNPJ and validates both check digits
func NewCNPJ(raw string) (CNPJ, error) {
	digits := onlyDigits(raw)
	if len(digits) != 14 {
		return "", fmt.Errorf("CNPJ must have 14 digits, got %d", len(digits))
	}
	if strings.Count(digits, digits[:1]) == 14 {
		return "", fmt.Errorf("CNPJ cannot repeat a single digit")
	}

	first := cnpjCheckDigit(digits[:12], cnpjFirstWeights)
	second := cnpjCheckDigit(digits[:12]+string(rune('0'+first)), cnpjSecondWeights)
	if int(digits[12]-'0') != first || int(digits[13]-'0') != second {
		return "", fmt.Errorf("CNPJ check digits do not match")
	}
	return CNPJ(digits), nil
}

// String returns the bare digits
func (c CNPJ) String() string {
	return string(c)
}

// Formatted returns the CNPJ as 00.000.000/0000-00
func (c CNPJ) Formatted() string {
	if len(c) != 14 {
		return string(c)
	}
	s := string(c)
	return s[0:2] + "." + s[2:5] + "." + s[5:8] + "/" + s[8:12] + "-" + s[12:14]
}

func cnpjCheckDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
