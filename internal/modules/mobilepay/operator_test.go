package mobilepay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberHandling(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		valid     bool
		formatted string
		operator  string
	}{
		{"local unknown prefix", "0991234567", true, "243991234567", UnknownOperator},
		{"local mpesa", "0971234567", true, "243971234567", "M-PESA"},
		{"international airtel", "243812345678", true, "243812345678", "Airtel Money"},
		{"orange with punctuation", "(082) 123-4567", true, "243821234567", "Orange Money"},
		{"afrimoney spaced", "243 909 123 456", true, "243909123456", "AfriMoney"},
		{"too short", "09912345", false, "2439912345", UnknownOperator},
		{"wrong country", "254712345678", false, "254712345678", UnknownOperator},
		{"letters", "09912345ab", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidNumber(tt.in))
			if tt.formatted != "" {
				assert.Equal(t, tt.formatted, FormatNumber(tt.in))
			}
			if tt.operator != "" {
				assert.Equal(t, tt.operator, Operator(tt.in))
			}
		})
	}
}

func TestOperatorBoundaries(t *testing.T) {
	assert.Equal(t, "Airtel Money", Operator("243810000000"))
	assert.Equal(t, "Airtel Money", Operator("243819000000"))
	assert.Equal(t, "Orange Money", Operator("243829000000"))
	assert.Equal(t, UnknownOperator, Operator("243830000000"))
	assert.Equal(t, "AfriMoney", Operator("243900000000"))
	assert.Equal(t, UnknownOperator, Operator("243910000000"))
	assert.Equal(t, "M-PESA", Operator("243979000000"))
	assert.Equal(t, UnknownOperator, Operator("243980000000"))
}

func TestMaskNumber(t *testing.T) {
	assert.Equal(t, "243****567", MaskNumber("243991234567"))
	assert.Equal(t, "1234567", MaskNumber("1234567"))
	assert.Equal(t, "", MaskNumber(""))
}
