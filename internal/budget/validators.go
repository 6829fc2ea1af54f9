package budget

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	phonePattern      = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}-\d{3}$`)

	nameCaser = cases.Title(language.BrazilianPortuguese)
)

// ValidationErrors maps a request field (JSON name) to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// PostalCodeDigits strips any formatting from a CEP.
func PostalCodeDigits(cep string) string {
	return digitsOnly(cep)
}

// NormalizePostalCode formats an 8-digit CEP as NNNNN-NNN. Anything else is
// returned trimmed and untouched so validation can reject it.
func NormalizePostalCode(cep string) string {
	d := digitsOnly(cep)
	if len(d) != 8 {
		return strings.TrimSpace(cep)
	}
	return d[:5] + "-" + d[5:]
}

func IsValidPostalCode(cep string) bool {
	return postalCodePattern.MatchString(cep)
}

// NormalizePhoneNumber formats Brazilian numbers as (NN) NNNNN-NNNN or
// (NN) NNNN-NNNN, dropping a leading 55 country code or trunk zero.
func NormalizePhoneNumber(phone string) string {
	cleaned := digitsOnly(phone)

	if strings.HasPrefix(cleaned, "55") && (len(cleaned) == 12 || len(cleaned) == 13) {
		cleaned = cleaned[2:]
	}
	if strings.HasPrefix(cleaned, "0") && (len(cleaned) == 11 || len(cleaned) == 12) {
		cleaned = cleaned[1:]
	}

	switch len(cleaned) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", cleaned[:2], cleaned[2:7], cleaned[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", cleaned[:2], cleaned[2:6], cleaned[6:])
	}
	return strings.TrimSpace(phone)
}

func IsValidPhoneNumber(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}

	// Obviously fake numbers
	badNumbers := map[string]bool{
		"0000000000":  true,
		"00000000000": true,
		"1111111111":  true,
		"11111111111": true,
		"1234567890":  true,
		"9999999999":  true,
		"99999999999": true,
	}
	return !badNumbers[digitsOnly(phone)]
}

// PhoneDigitsInternational returns the number as 55 + DDD + subscriber, the
// form expected by wa.me links.
func PhoneDigitsInternational(phone string) string {
	d := digitsOnly(phone)
	if len(d) == 10 || len(d) == 11 {
		return "55" + d
	}
	return d
}

func NormalizeName(name string) string {
	return nameCaser.String(strings.Join(strings.Fields(name), " "))
}

func IsValidFullName(name string) bool {
	name = strings.TrimSpace(name)
	return utf8.RuneCountInString(name) >= 5 && len(strings.Fields(name)) >= 2
}

func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

// Normalize returns a copy of the request with contact fields canonicalized.
func Normalize(r ProjectRequest) ProjectRequest {
	r.FullName = NormalizeName(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Phone != "" {
		r.Phone = NormalizePhoneNumber(r.Phone)
	}
	if r.PostalCode != "" {
		r.PostalCode = NormalizePostalCode(r.PostalCode)
	}
	r.Notes = strings.TrimSpace(r.Notes)
	return r
}

// Validate checks a request submitted as a finished lead. Partial snapshots
// sent for estimation are not validated.
func Validate(r ProjectRequest) error {
	errs := ValidationErrors{}

	if !IsValidFullName(r.FullName) {
		errs["fullName"] = "Informe nome completo (mínimo 5 caracteres)"
	}
	if !IsValidEmail(r.Email) {
		errs["email"] = "Email inválido"
	}
	if !IsValidPhoneNumber(r.Phone) {
		errs["phone"] = "Formato de telefone inválido"
	}
	if !IsValidPostalCode(r.PostalCode) {
		errs["cep"] = "Formato de CEP inválido"
	}
	if !r.SurfaceType.Valid() {
		errs["surfaceType"] = "Selecione o tipo de superfície"
	}
	if r.SurfaceWidth != nil && *r.SurfaceWidth <= 0 {
		errs["surfaceWidth"] = "Largura deve ser positiva"
	}
	if r.SurfaceHeight != nil && *r.SurfaceHeight <= 0 {
		errs["surfaceHeight"] = "Altura deve ser positiva"
	}
	if r.ArtSeries != "" && !r.ArtSeries.Valid() {
		errs["artSeries"] = "Série de arte desconhecida"
	}
	for _, s := range r.PreferredStyles {
		if !s.Valid() {
			errs["preferredStyles"] = "Estilo desconhecido"
			break
		}
	}
	if r.Complexity != nil && (*r.Complexity < MinComplexity || *r.Complexity > MaxComplexity) {
		errs["complexity"] = "Complexidade deve estar entre 1 e 10"
	}
	if utf8.RuneCountInString(r.Notes) > MaxNotesLen {
		errs["additionalNotes"] = "Observações devem ter no máximo 1000 caracteres"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
