package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/record"
)

type fixedResolver struct {
	locators []locator.Locator
}

func (r fixedResolver) ResolveAll(ctx context.Context) ([]locator.Locator, error) {
	return r.locators, nil
}

func (r fixedResolver) ResolveForID(ctx context.Context, id string) (locator.Locator, error) {
	return r.locators[0], nil
}

func TestResolveSingleLocator(t *testing.T) {
	ctx := context.Background()
	p0 := locator.Memory{Name: "p0"}
	p1 := locator.Memory{Name: "p1"}

	t.Run("explicit_wins", func(t *testing.T) {
		loc, err := ResolveSingleLocator(ctx, "Put", fixedResolver{[]locator.Locator{p0, p1}}, p1)
		require.NoError(t, err)
		assert.Equal(t, p1.Key(), loc.Key())
	})

	t.Run("unique_partition", func(t *testing.T) {
		loc, err := ResolveSingleLocator(ctx, "Put", locator.NewSingleResolver(p0), nil)
		require.NoError(t, err)
		assert.Equal(t, p0.Key(), loc.Key())
	})

	t.Run("no_partitions", func(t *testing.T) {
		_, err := ResolveSingleLocator(ctx, "Put", fixedResolver{nil}, nil)
		require.Error(t, err)
		assert.True(t, record.IsValidation(err))
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := ResolveSingleLocator(ctx, "Put", fixedResolver{[]locator.Locator{p0, p1}}, nil)
		require.Error(t, err)
		assert.True(t, record.IsValidation(err))
	})
}

func TestLocatorKeys(t *testing.T) {
	assert.Equal(t, "memory:p0", locator.Memory{Name: "p0"}.Key())
	assert.Equal(t, locator.FileSystem{RootPath: "/data/x/"}.Key(), locator.FileSystem{RootPath: "/data/x"}.Key())
	assert.NotEqual(t, locator.Memory{Name: "a"}.Key(), locator.FileSystem{RootPath: "a"}.Key())
}
