package adapters

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discount-extractor/internal/testutil"
	"discount-extractor/internal/types"
)

func newTestAdapter(t *testing.T) *DiscountAdapter {
	t.Helper()
	adapter, err := NewDiscountAdapter(types.DefaultSelectors(), "https://shop.example/indirimli-urunler", logrus.New())
	require.NoError(t, err)
	return adapter
}

func TestNewDiscountAdapter_InvalidBaseURL(t *testing.T) {
	_, err := NewDiscountAdapter(types.DefaultSelectors(), "http://[::1", logrus.New())
	assert.Error(t, err)
}

func TestExtract_FieldsAndOrder(t *testing.T) {
	adapter := newTestAdapter(t)
	snapshots := testutil.Snapshots(
		testutil.Card{
			Title:     "Ayran 1 L",
			Link:      "/ayran-1-l-p-1",
			Src:       "data:image/gif;base64,R0lGODlhAQABAAAAACw=",
			LazySrc:   "https://images.example/ayran.jpg",
			BasePrice: "100,00",
			SalePrice: "80,00",
		},
		testutil.Card{
			Title:     "  Beyaz   Peynir\n 500 g ",
			Link:      "https://shop.example/peynir-p-2",
			Src:       "https://images.example/peynir.jpg",
			BasePrice: "1.249,90",
			SalePrice: "999,95",
		},
	)

	records, err := adapter.Extract(snapshots, 4)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, types.PagePosition{Number: 4, Order: 1}, first.Page)
	assert.Equal(t, "Ayran 1 L", first.Title)
	assert.Equal(t, "https://shop.example/ayran-1-l-p-1", first.Link)
	assert.Equal(t, "https://images.example/ayran.jpg", first.ImageURL)
	assert.Equal(t, "100.00", first.BasePrice.String())
	assert.Equal(t, "80.00", first.DiscountPrice.String())
	assert.Equal(t, "20.00", first.DiscountDiff.String())

	second := records[1]
	assert.Equal(t, types.PagePosition{Number: 4, Order: 2}, second.Page)
	assert.Equal(t, "Beyaz Peynir 500 g", second.Title)
	assert.Equal(t, "https://images.example/peynir.jpg", second.ImageURL)
	assert.Equal(t, "249.95", second.DiscountDiff.String())
}

func TestExtract_DiffInvariant(t *testing.T) {
	adapter := newTestAdapter(t)
	snapshots := testutil.Snapshots(
		testutil.Card{Title: "A", Link: "/a", Src: "/a.jpg", BasePrice: "10,00", SalePrice: "7,50"},
		testutil.Card{Title: "B", Link: "/b", Src: "/b.jpg", BasePrice: "5,00", SalePrice: "5,00"},
		testutil.Card{Title: "C", Link: "/c", Src: "/c.jpg", BasePrice: "3,00", SalePrice: "4,25"},
	)

	records, err := adapter.Extract(snapshots, 1)
	require.NoError(t, err)

	for _, r := range records {
		assert.Equal(t, r.BasePrice-r.DiscountPrice, r.DiscountDiff, r.Title)
	}
	assert.Equal(t, "-1.25", records[2].DiscountDiff.String())
}

func TestExtract_ImageResolution(t *testing.T) {
	adapter := newTestAdapter(t)
	snapshots := testutil.Snapshots(
		testutil.Card{Title: "Placeholder only", Link: "/a", Src: "data:image/png;base64,AAAA", BasePrice: "2,00", SalePrice: "1,00"},
		testutil.Card{Title: "No image", Link: "/b", NoImage: true, BasePrice: "2,00", SalePrice: "1,00"},
		testutil.Card{Title: "Relative", Link: "/c", Src: "/img/c.jpg", LazySrc: "/img/c-large.jpg", BasePrice: "2,00", SalePrice: "1,00"},
		testutil.Card{Title: "Empty src", Link: "/d", Src: "", LazySrc: "/img/d.jpg", BasePrice: "2,00", SalePrice: "1,00"},
	)

	records, err := adapter.Extract(snapshots, 1)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Empty(t, records[0].ImageURL)
	assert.False(t, records[0].HasImage())
	assert.Empty(t, records[1].ImageURL)
	assert.Equal(t, "https://shop.example/img/c.jpg", records[2].ImageURL)
	assert.Equal(t, "https://shop.example/img/d.jpg", records[3].ImageURL)
}

func TestExtract_ParseErrors(t *testing.T) {
	adapter := newTestAdapter(t)

	tests := []struct {
		name  string
		card  testutil.Card
		field string
	}{
		{"missing sale price", testutil.Card{Title: "A", Link: "/a", Src: "/a.jpg", BasePrice: "10,00"}, "discountPrice"},
		{"non numeric base", testutil.Card{Title: "A", Link: "/a", Src: "/a.jpg", BasePrice: "", SalePrice: "1,00"}, "basePrice"},
		{"empty title", testutil.Card{Title: " ", Link: "/a", Src: "/a.jpg", BasePrice: "2,00", SalePrice: "1,00"}, "title"},
		{"empty link", testutil.Card{Title: "A", Link: "", Src: "/a.jpg", BasePrice: "2,00", SalePrice: "1,00"}, "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshots := testutil.Snapshots(
				testutil.Card{Title: "ok", Link: "/ok", Src: "/ok.jpg", BasePrice: "2,00", SalePrice: "1,00"},
				tt.card,
			)
			records, err := adapter.Extract(snapshots, 3)
			require.Error(t, err)
			assert.Nil(t, records)
			assert.Contains(t, err.Error(), "page 3 item 2")

			var parseErr *types.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.field, parseErr.Field)
		})
	}
}

func TestItems_SingleUse(t *testing.T) {
	adapter := newTestAdapter(t)
	snapshots := testutil.Snapshots(
		testutil.Card{Title: "A", Link: "/a", Src: "/a.jpg", BasePrice: "2,00", SalePrice: "1,00"},
		testutil.Card{Title: "B", Link: "/b", Src: "/b.jpg", BasePrice: "3,00", SalePrice: "1,00"},
	)

	seq := adapter.Items(snapshots, 1)
	snapshots[0] = "<p>mutated after capture</p>"

	var titles []string
	for record, err := range seq {
		require.NoError(t, err)
		titles = append(titles, record.Title)
	}
	assert.Equal(t, []string{"A", "B"}, titles)

	count := 0
	for range seq {
		count++
	}
	assert.Zero(t, count, "sequence must not restart")
}

func TestItems_EarlyStop(t *testing.T) {
	adapter := newTestAdapter(t)
	snapshots := testutil.Snapshots(
		testutil.Card{Title: "A", Link: "/a", Src: "/a.jpg", BasePrice: "2,00", SalePrice: "1,00"},
		testutil.Card{Title: "B", Link: "/b", Src: "/b.jpg", BasePrice: "3,00", SalePrice: "1,00"},
	)

	for record, err := range adapter.Items(snapshots, 1) {
		require.NoError(t, err)
		assert.Equal(t, "A", record.Title)
		break
	}
}

func TestExtract_Empty(t *testing.T) {
	adapter := newTestAdapter(t)

	records, err := adapter.Extract(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFingerprint(t *testing.T) {
	adapter := newTestAdapter(t)

	page := []testutil.Card{
		{Title: "A", Link: "/a", Src: "/a.jpg", BasePrice: "2,00", SalePrice: "1,00"},
		{Title: "B", Link: "/b", Src: "/b.jpg", BasePrice: "3,00", SalePrice: "1,00"},
	}
	loading := []testutil.Card{
		{Title: "A", Link: "/a", Src: "data:image/gif;base64,R0lG", LazySrc: "/a.jpg", BasePrice: "2,00", SalePrice: "1,00"},
		{Title: "B", Link: "/b", NoImage: true, BasePrice: "3,00", SalePrice: "1,00"},
	}
	other := []testutil.Card{
		{Title: "C", Link: "/c", Src: "/c.jpg", BasePrice: "2,00", SalePrice: "1,00"},
		{Title: "B", Link: "/b", Src: "/b.jpg", BasePrice: "3,00", SalePrice: "1,00"},
	}

	fingerprint := adapter.Fingerprint(testutil.Snapshots(page...))
	assert.Equal(t, fingerprint, adapter.Fingerprint(testutil.Snapshots(loading...)))
	assert.NotEqual(t, fingerprint, adapter.Fingerprint(testutil.Snapshots(other...)))
	assert.Empty(t, adapter.Fingerprint(nil))
}
