package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() map[string]any {
	return map[string]any{
		"firstName":       "Amina",
		"lastName":        "Bello",
		"email":           "amina@example.com",
		"phone":           "+2348012345678",
		"aboutBusiness":   "Textile trading",
		"businessName":    "Bello Textiles",
		"businessType":    "retail",
		"businessAddress": "12 Market Road, Katsina",
		"yearsInBusiness": "2-3",
		"expectations":    "Financing guidance",
		"availability":    "immediately",
		"preferredTime":   "morning",
	}
}

func marshal(t *testing.T, payload map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestValidPayloadPasses(t *testing.T) {
	assert.Nil(t, ValidateRegistration(marshal(t, validPayload())))
}

func TestOptionalFieldsAccepted(t *testing.T) {
	payload := validPayload()
	payload["cacNo"] = "RC123456"
	payload["kasedaCertNo"] = "KAS-99"
	payload["additionalInfo"] = "Arriving early"
	assert.Nil(t, ValidateRegistration(marshal(t, payload)))
}

func TestMissingRequiredFieldReported(t *testing.T) {
	payload := validPayload()
	delete(payload, "email")

	fields := ValidateRegistration(marshal(t, payload))
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Field)
}

func TestInvalidPhoneRejected(t *testing.T) {
	for _, phone := range []string{"08012345678", "+23480123456", "+234801234567890", "+1348012345678"} {
		payload := validPayload()
		payload["phone"] = phone
		fields := ValidateRegistration(marshal(t, payload))
		require.NotEmpty(t, fields, phone)
		assert.Equal(t, "phone", fields[0].Field)
	}
}

func TestEnumViolationsReported(t *testing.T) {
	payload := validPayload()
	payload["businessType"] = "mining"
	payload["yearsInBusiness"] = "50"

	fields := ValidateRegistration(marshal(t, payload))
	assert.Len(t, fields, 2)
}

func TestUnknownFieldRejected(t *testing.T) {
	payload := validPayload()
	payload["isAdmin"] = true

	fields := ValidateRegistration(marshal(t, payload))
	require.NotEmpty(t, fields)
}

func TestNonObjectBodyRejected(t *testing.T) {
	fields := ValidateRegistration([]byte(`"just a string"`))
	assert.NotEmpty(t, fields)
}

func TestMultipleErrorsCollected(t *testing.T) {
	payload := validPayload()
	delete(payload, "firstName")
	payload["phone"] = "bad"

	fields := ValidateRegistration(marshal(t, payload))
	assert.GreaterOrEqual(t, len(fields), 2)
}
