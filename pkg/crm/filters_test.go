package crm_test

import (
	"net/url"
	"testing"

	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/stretchr/testify/assert"
)

func TestProspectFilter_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filter   *crm.ProspectFilter
		expected url.Values
	}{
		{
			name:     "nil filter",
			filter:   nil,
			expected: url.Values{},
		},
		{
			name:     "empty filter",
			filter:   &crm.ProspectFilter{},
			expected: url.Values{},
		},
		{
			name: "blank strings are omitted",
			filter: &crm.ProspectFilter{
				Search:  "   ",
				Country: "",
				City:    "\t",
			},
			expected: url.Values{},
		},
		{
			name: "set fields only",
			filter: &crm.ProspectFilter{
				Search:       " acme ",
				Status:       crm.ProspectStatusInteresse,
				Country:      "CI",
				AssignedToID: "u-1",
			},
			expected: url.Values{
				"search":       []string{"acme"},
				"status":       []string{"INTERESSE"},
				"country":      []string{"CI"},
				"assignedToId": []string{"u-1"},
			},
		},
		{
			name: "pagination and sort",
			filter: &crm.ProspectFilter{
				Pagination: crm.Pagination{Page: 2, Limit: 20},
				Sort:       crm.Sort{SortBy: "createdAt", SortOrder: "DESC"},
			},
			expected: url.Values{
				"page":      []string{"2"},
				"limit":     []string{"20"},
				"sortBy":    []string{"createdAt"},
				"sortOrder": []string{"desc"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.filter.ToValues())
		})
	}
}

func TestUserFilter_ToValues(t *testing.T) {
	t.Parallel()

	values := (&crm.UserFilter{Role: crm.UserRoleSalesOfficer, IsActive: crm.Ptr(false)}).ToValues()
	assert.Equal(t, url.Values{
		"role":     []string{"SALES_OFFICER"},
		"isActive": []string{"false"},
	}, values)

	assert.Empty(t, (&crm.UserFilter{}).ToValues())
}

func TestChildFilters_ToValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "prospectId=p-1", (&crm.CommentFilter{ProspectID: "p-1"}).ToValues().Encode())
	assert.Equal(t, "channel=APPEL&prospectId=p-1",
		(&crm.InteractionFilter{ProspectID: "p-1", Channel: crm.InteractionChannelAppel}).ToValues().Encode())
	assert.Equal(t, "country=SN&status=ACTIVE",
		(&crm.CatalogFilter{Country: "SN", Status: crm.GenericStatusActive}).ToValues().Encode())
	assert.Equal(t, "search=admin", (&crm.RoleFilter{Search: "admin"}).ToValues().Encode())
	assert.Empty(t, (*crm.PermissionFilter)(nil).ToValues())
	assert.Equal(t, "country=CI", (&crm.StatsFilter{Country: "CI"}).ToValues().Encode())
}
