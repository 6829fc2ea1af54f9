package budget

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func validRequest() ProjectRequest {
	return ProjectRequest{
		FullName:    "Maria da Silva",
		Email:       "maria@example.com",
		Phone:       "(11) 98765-4321",
		PostalCode:  "01310-100",
		SurfaceType: SurfaceInternalWall,
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"11987654321", "(11) 98765-4321"},
		{"+55 11 98765-4321", "(11) 98765-4321"},
		{"011 98765 4321", "(11) 98765-4321"},
		{"1132654321", "(11) 3265-4321"},
		{"(21) 3265-4321", "(21) 3265-4321"},
		{"12345", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in))
		})
	}
}

func TestIsValidPhoneNumber(t *testing.T) {
	assert.True(t, IsValidPhoneNumber("(11) 98765-4321"))
	assert.True(t, IsValidPhoneNumber("(11) 3265-4321"))
	assert.False(t, IsValidPhoneNumber("11987654321"))
	assert.False(t, IsValidPhoneNumber("(11) 11111-1111"))
	assert.False(t, IsValidPhoneNumber("(12) 3456-7890"))
}

func TestNormalizePostalCode(t *testing.T) {
	assert.Equal(t, "01310-100", NormalizePostalCode("01310100"))
	assert.Equal(t, "01310-100", NormalizePostalCode(" 01.310-100 "))
	assert.Equal(t, "0131", NormalizePostalCode(" 0131 "))
	assert.True(t, IsValidPostalCode("01310-100"))
	assert.False(t, IsValidPostalCode("01310100"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Maria Da Silva", NormalizeName("  maria   DA silva "))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("maria@example.com"))
	assert.False(t, IsValidEmail("maria@example"))
	assert.False(t, IsValidEmail("Maria <maria@example.com>"))
	assert.False(t, IsValidEmail("not-an-email"))
}

func TestValidate_OK(t *testing.T) {
	req := validRequest()
	req.SurfaceWidth = floatPtr(4)
	req.SurfaceHeight = floatPtr(3)
	req.Complexity = intPtr(9)
	req.ArtSeries = "GM-013"
	req.PreferredStyles = []Style{"monocromatico"}

	assert.NoError(t, Validate(req))
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	req := ProjectRequest{
		FullName:      "Ana",
		Email:         "ana",
		Phone:         "123",
		PostalCode:    "0131",
		SurfaceWidth:  floatPtr(-1),
		SurfaceHeight: floatPtr(0),
		ArtSeries:     "GM-999",
		Complexity:    intPtr(11),
		Notes:         strings.Repeat("a", MaxNotesLen+1),
	}

	err := Validate(req)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	for _, field := range []string{
		"fullName", "email", "phone", "cep", "surfaceType",
		"surfaceWidth", "surfaceHeight", "artSeries", "complexity", "additionalNotes",
	} {
		assert.Contains(t, verrs, field)
	}
	assert.Contains(t, err.Error(), "cep: Formato de CEP inválido")
}

func TestNormalize(t *testing.T) {
	req := Normalize(ProjectRequest{
		FullName:   "joão pereira",
		Email:      " Joao@Example.COM ",
		Phone:      "11 98765 4321",
		PostalCode: "01310100",
		Notes:      "  pintar a parede dos fundos  ",
	})

	assert.Equal(t, "João Pereira", req.FullName)
	assert.Equal(t, "joao@example.com", req.Email)
	assert.Equal(t, "(11) 98765-4321", req.Phone)
	assert.Equal(t, "01310-100", req.PostalCode)
	assert.Equal(t, "pintar a parede dos fundos", req.Notes)
}
