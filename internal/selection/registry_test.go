package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

func testEntityTypes() []types.EntityType {
	return []types.EntityType{
		{ID: "node", Label: "Content", Bundles: []string{"article", "page"}},
		{ID: "user", Label: "User"},
	}
}

func TestSelectionGroups(t *testing.T) {
	r := NewRegistry(testEntityTypes())

	groups := r.SelectionGroups("node")
	require.Len(t, groups, 2)
	assert.Equal(t, "default", groups[0].ID)
	assert.Contains(t, groups[0].Handlers, "default:node")
	assert.NotContains(t, groups[0].Handlers, "default:user")
	assert.Equal(t, "views", groups[1].ID)
	assert.Contains(t, groups[1].Handlers, "views")
}

func TestSelectionHandler(t *testing.T) {
	r := NewRegistry(testEntityTypes())

	h, err := r.SelectionHandler("default:user", "user")
	require.NoError(t, err)
	assert.Equal(t, "default", h.Group)

	h, err = r.SelectionHandler("default", "node")
	require.NoError(t, err)
	assert.Equal(t, "default:node", h.ID)

	_, err = r.SelectionHandler("default:user", "node")
	assert.ErrorIs(t, err, types.ErrHandlerNotFound)

	_, err = r.SelectionHandler("missing", "node")
	assert.ErrorIs(t, err, types.ErrHandlerNotFound)
}

func TestDefaultConfigurationForm(t *testing.T) {
	r := NewRegistry(testEntityTypes())
	h, err := r.SelectionHandler("default:node", "node")
	require.NoError(t, err)

	els := h.ConfigurationForm(testEntityTypes()[0], map[string]any{
		"sort": map[string]any{"field": "label", "direction": "DESC"},
	})
	require.Len(t, els, 3)
	assert.Equal(t, "target_bundles", els[0].Key)
	assert.Len(t, els[0].Options, 2)

	sort := els[1]
	require.Len(t, sort.Children, 2)
	assert.Equal(t, "label", sort.Children[0].Default)
	assert.Equal(t, "DESC", sort.Children[1].Default)
}

func TestRegisterCustomHandler(t *testing.T) {
	r := NewRegistry(testEntityTypes())
	require.Error(t, r.Register(&Handler{ID: "x"}))
	require.NoError(t, r.Register(&Handler{ID: "search", Group: "search", Label: "Search", Weight: 5}))

	groups := r.SelectionGroups("user")
	ids := []string{}
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"default", "search", "views"}, ids)
}
