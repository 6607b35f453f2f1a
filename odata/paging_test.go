package odata

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/m365/rest"
)

type fakeGetter struct {
	responses map[string]string
	calls     []string
	params    []url.Values
	err       error
}

func (f *fakeGetter) Get(ctx context.Context, rawURL string, params url.Values, out any, opts ...rest.RequestOption) error {
	f.calls = append(f.calls, rawURL)
	f.params = append(f.params, params)
	if f.err != nil {
		return f.err
	}
	body, ok := f.responses[rawURL]
	if !ok {
		return errors.New("unexpected URL: " + rawURL)
	}
	return json.Unmarshal([]byte(body), out)
}

type item struct {
	ID string `json:"id"`
}

func TestPagerFollowsNextLinks(t *testing.T) {
	getter := &fakeGetter{responses: map[string]string{
		"https://example.com/items":  `{"value":[{"id":"1"},{"id":"2"}],"@odata.nextLink":"https://example.com/items?skip=2"}`,
		"https://example.com/items?skip=2": `{"value":[{"id":"3"}]}`,
	}}

	pager := NewPager[item](getter, "https://example.com/items", nil)

	var ids []string
	for it, err := range pager.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.False(t, pager.More())
	assert.Len(t, getter.calls, 2)
}

func TestPagerSendsParamsOnFirstRequestOnly(t *testing.T) {
	getter := &fakeGetter{responses: map[string]string{
		"https://example.com/items":  `{"value":[{"id":"1"}],"@odata.nextLink":"https://example.com/items?skip=1"}`,
		"https://example.com/items?skip=1": `{"value":[{"id":"2"}]}`,
	}}

	params := url.Values{"$top": {"1"}}
	pager := NewPager[item](getter, "https://example.com/items", params)

	_, err := pager.NextPage(context.Background())
	require.NoError(t, err)
	_, err = pager.NextPage(context.Background())
	require.NoError(t, err)

	require.Len(t, getter.params, 2)
	assert.Equal(t, params, getter.params[0])
	assert.Nil(t, getter.params[1])
}

func TestPagerLimitTrimsFinalPage(t *testing.T) {
	getter := &fakeGetter{responses: map[string]string{
		"https://example.com/items": `{"value":[{"id":"1"},{"id":"2"},{"id":"3"}],"@odata.nextLink":"https://example.com/items?skip=3"}`,
	}}

	pager := NewPager[item](getter, "https://example.com/items", nil).Limit(2)

	items, err := pager.NextPage(context.Background())
	require.NoError(t, err)

	assert.Len(t, items, 2)
	assert.False(t, pager.More(), "reaching the limit must clear the next link")
	assert.Len(t, getter.calls, 1)
}

func TestPagerExhausted(t *testing.T) {
	getter := &fakeGetter{responses: map[string]string{
		"https://example.com/items": `{"value":[{"id":"1"}]}`,
	}}

	pager := NewPager[item](getter, "https://example.com/items", nil)

	_, err := pager.NextPage(context.Background())
	require.NoError(t, err)

	items, err := pager.NextPage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, getter.calls, 1)
}

func TestPagerAllStopsOnError(t *testing.T) {
	getter := &fakeGetter{err: errors.New("boom")}

	pager := NewPager[item](getter, "https://example.com/items", nil)

	var errs []error
	for _, err := range pager.All(context.Background()) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "boom")
}
