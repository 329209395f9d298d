package crm_test

import (
	"testing"

	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProspect() *crm.ProspectCreateRequest {
	return &crm.ProspectCreateRequest{
		Type:      crm.ProspectTypeParticulier,
		FirstName: "Aya",
		Email:     "a@x.com",
		Country:   "CI",
	}
}

func TestValidate_ProspectCreateRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		mutate        func(req *crm.ProspectCreateRequest)
		expectedField string
		expectedRule  string
	}{
		{
			name:   "valid",
			mutate: func(req *crm.ProspectCreateRequest) {},
		},
		{
			name:          "missing email",
			mutate:        func(req *crm.ProspectCreateRequest) { req.Email = "" },
			expectedField: "email",
			expectedRule:  "required",
		},
		{
			name:          "malformed email",
			mutate:        func(req *crm.ProspectCreateRequest) { req.Email = "not-an-email" },
			expectedField: "email",
			expectedRule:  "email",
		},
		{
			name:          "unknown type",
			mutate:        func(req *crm.ProspectCreateRequest) { req.Type = "ASSOCIATION" },
			expectedField: "type",
			expectedRule:  "enum",
		},
		{
			name: "company without name",
			mutate: func(req *crm.ProspectCreateRequest) {
				req.Type = crm.ProspectTypeEntreprise
				req.FirstName = ""
			},
			expectedField: "companyName",
			expectedRule:  "required_if",
		},
		{
			name:          "person without first name",
			mutate:        func(req *crm.ProspectCreateRequest) { req.FirstName = "" },
			expectedField: "firstName",
			expectedRule:  "required_if",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validProspect()
			tt.mutate(req)

			err := crm.Validate(req)
			if tt.expectedField == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			require.ErrorIs(t, err, crm.ErrInvalidInput)

			var validationErr *crm.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Len(t, validationErr.Fields, 1)
			assert.Equal(t, tt.expectedField, validationErr.Fields[0].Field)
			assert.Equal(t, tt.expectedRule, validationErr.Fields[0].Rule)
		})
	}
}

func TestValidate_UpdateRequests(t *testing.T) {
	t.Parallel()

	require.NoError(t, crm.Validate(&crm.ProspectUpdateRequest{}))
	require.NoError(t, crm.Validate(&crm.ProspectUpdateRequest{Status: crm.Ptr(crm.ProspectStatusClosed)}))

	err := crm.Validate(&crm.ProspectUpdateRequest{Status: crm.Ptr(crm.ProspectStatus("WON"))})
	require.ErrorIs(t, err, crm.ErrInvalidInput)
	assert.Contains(t, err.Error(), "status failed enum")

	err = crm.Validate(&crm.UserUpdateRequest{Role: crm.Ptr(crm.UserRole("ROOT"))})
	require.ErrorIs(t, err, crm.ErrInvalidInput)
}

func TestValidate_CatalogPrice(t *testing.T) {
	t.Parallel()

	price, err := crm.NewMoney("-1")
	require.NoError(t, err)

	err = crm.Validate(&crm.CatalogCreateRequest{Name: "Excel", Country: "CI", Price: price})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price failed gte=0")

	require.NoError(t, crm.Validate(&crm.CatalogCreateRequest{Name: "Excel", Country: "CI", Price: crm.MoneyFromInt(50000)}))
	require.NoError(t, crm.Validate(&crm.CatalogUpdateRequest{Price: crm.Ptr(crm.MoneyFromInt(0))}))
}

func TestValidate_Interaction(t *testing.T) {
	t.Parallel()

	err := crm.Validate(&crm.InteractionCreateRequest{ProspectID: "p-1", Channel: crm.InteractionChannelSMS, Duration: -5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration failed gte=0")

	require.NoError(t, crm.Validate(&crm.InteractionCreateRequest{ProspectID: "p-1", Channel: crm.InteractionChannelSMS}))
}
