package services

import (
	"context"
	"testing"

	"github.com/safarihub/booking-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache is an in-process DestinationCache
type mapCache struct {
	pages       map[string]*models.DestinationPage
	hits        int
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{pages: map[string]*models.DestinationPage{}}
}

func (c *mapCache) Get(ctx context.Context, filter models.DestinationFilter) (*models.DestinationPage, bool) {
	page, ok := c.pages[filter.CacheKey()]
	if ok {
		c.hits++
	}
	return page, ok
}

func (c *mapCache) Set(ctx context.Context, filter models.DestinationFilter, page *models.DestinationPage) {
	c.pages[filter.CacheKey()] = page
}

func (c *mapCache) Invalidate(ctx context.Context) {
	c.invalidated++
	c.pages = map[string]*models.DestinationPage{}
}

func newDestinationService() (*DestinationService, *fakeDestinations, *mapCache) {
	users := newFakeUsers()
	users.guides[guide1.ProfileID] = true
	destinations := newFakeDestinations()
	cache := newMapCache()
	return NewDestinationService(destinations, users, cache, testLogger()), destinations, cache
}

func validDestination(name string) models.CreateDestinationRequest {
	return models.CreateDestinationRequest{
		Name:              name,
		Country:           "Kenya",
		Price:             decimal.RequireFromString("1200.50"),
		Category:          models.CategoryPopular,
		IncludedAmenities: []string{"Park fees", "Lodge"},
		Itinerary:         []string{"Day 1: Nairobi", "Day 2: Maasai Mara"},
	}
}

func TestCreateDestination(t *testing.T) {
	svc, _, cache := newDestinationService()

	d, err := svc.CreateDestination(ctxBG(), validDestination("Maasai Mara"))
	require.NoError(t, err)
	assert.NotZero(t, d.ID)
	assert.Equal(t, models.StringArray{"Park fees", "Lodge"}, d.IncludedAmenities)
	assert.Equal(t, 1, cache.invalidated)

	_, err = svc.CreateDestination(ctxBG(), validDestination("maasai mara"))
	requireKind(t, err, KindConflict, CodeNameTaken)

	bad := validDestination("Zanzibar")
	bad.Category = "domestic"
	_, err = svc.CreateDestination(ctxBG(), bad)
	requireKind(t, err, KindValidation, "")

	bad = validDestination("Zanzibar")
	bad.Price = decimal.NewFromInt(-1)
	_, err = svc.CreateDestination(ctxBG(), bad)
	requireKind(t, err, KindValidation, "")

	unknownGuide := int64(999)
	bad = validDestination("Zanzibar")
	bad.GuideID = &unknownGuide
	_, err = svc.CreateDestination(ctxBG(), bad)
	requireKind(t, err, KindNotFound, "")
}

func TestListDestinations_UsesCache(t *testing.T) {
	svc, _, cache := newDestinationService()
	_, err := svc.CreateDestination(ctxBG(), validDestination("Amboseli"))
	require.NoError(t, err)

	filter := models.DestinationFilter{Page: models.NewPagination(1, 10)}
	first, err := svc.ListDestinations(ctxBG(), filter)
	require.NoError(t, err)
	require.Len(t, first.Destinations, 1)
	assert.Equal(t, 1, first.Pagination.Total)

	second, err := svc.ListDestinations(ctxBG(), filter)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.hits)

	_, err = svc.CreateDestination(ctxBG(), validDestination("Tsavo"))
	require.NoError(t, err)

	third, err := svc.ListDestinations(ctxBG(), filter)
	require.NoError(t, err)
	assert.Len(t, third.Destinations, 2)
}

func TestListDestinations_RejectsBadFilter(t *testing.T) {
	svc, _, _ := newDestinationService()

	_, err := svc.ListDestinations(ctxBG(), models.DestinationFilter{Category: "beach"})
	requireKind(t, err, KindValidation, "")

	low, high := decimal.NewFromInt(500), decimal.NewFromInt(100)
	_, err = svc.ListDestinations(ctxBG(), models.DestinationFilter{MinPrice: &low, MaxPrice: &high})
	requireKind(t, err, KindValidation, "")
}

func TestListDestinations_WithoutCache(t *testing.T) {
	svc := NewDestinationService(newFakeDestinations(), newFakeUsers(), nil, testLogger())

	page, err := svc.ListDestinations(ctxBG(), models.DestinationFilter{Page: models.NewPagination(1, 10)})
	require.NoError(t, err)
	assert.Empty(t, page.Destinations)
}

func TestUpdateDestination(t *testing.T) {
	svc, _, _ := newDestinationService()
	d, err := svc.CreateDestination(ctxBG(), validDestination("Samburu"))
	require.NoError(t, err)
	_, err = svc.CreateDestination(ctxBG(), validDestination("Lamu"))
	require.NoError(t, err)

	price := decimal.RequireFromString("999.99")
	updated, err := svc.UpdateDestination(ctxBG(), d.ID, models.UpdateDestinationRequest{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, "Samburu", updated.Name)

	name := "Lamu"
	_, err = svc.UpdateDestination(ctxBG(), d.ID, models.UpdateDestinationRequest{Name: &name})
	requireKind(t, err, KindConflict, CodeNameTaken)

	blank := " "
	_, err = svc.UpdateDestination(ctxBG(), d.ID, models.UpdateDestinationRequest{Name: &blank})
	requireKind(t, err, KindValidation, "")

	_, err = svc.UpdateDestination(ctxBG(), 9999, models.UpdateDestinationRequest{Price: &price})
	requireKind(t, err, KindNotFound, "")
}

func TestDeleteDestination(t *testing.T) {
	svc, destinations, _ := newDestinationService()
	kept, err := svc.CreateDestination(ctxBG(), validDestination("Ngorongoro"))
	require.NoError(t, err)
	gone, err := svc.CreateDestination(ctxBG(), validDestination("Mikumi"))
	require.NoError(t, err)
	destinations.referenced[kept.ID] = true

	err = svc.DeleteDestination(ctxBG(), kept.ID)
	requireKind(t, err, KindConflict, CodeStillReferenced)

	require.NoError(t, svc.DeleteDestination(ctxBG(), gone.ID))

	_, err = svc.GetDestination(ctxBG(), gone.ID)
	requireKind(t, err, KindNotFound, "")

	err = svc.DeleteDestination(ctxBG(), gone.ID)
	requireKind(t, err, KindNotFound, "")
}
