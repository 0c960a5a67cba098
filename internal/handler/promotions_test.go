package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"poscore/internal/dto"
	"poscore/internal/handler"
	"poscore/internal/model"
	"poscore/internal/repository"
	"poscore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("record not found")

// stubPromotionRepo backs PromotionService in handler tests.
type stubPromotionRepo struct {
	promotions map[uuid.UUID]*model.Promotion
}

func (r *stubPromotionRepo) Create(_ context.Context, p *model.Promotion) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.promotions[p.ID] = p
	return nil
}

func (r *stubPromotionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, ok := r.promotions[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubPromotionRepo) List(_ context.Context, _ bool) ([]model.Promotion, error) {
	var out []model.Promotion
	for _, p := range r.promotions {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubPromotionRepo) Update(_ context.Context, p *model.Promotion) error {
	r.promotions[p.ID] = p
	return nil
}

func (r *stubPromotionRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.promotions[id].Active = false
	return nil
}

var _ repository.PromotionRepository = (*stubPromotionRepo)(nil)

func newPromotionsRouter(repo *stubPromotionRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewPromotionsHandler(service.NewPromotionService(repo))
	r := gin.New()
	r.POST("/promotions/calculate", h.Calculate)
	return r
}

func TestCalculateEndpoint_OK(t *testing.T) {
	repo := &stubPromotionRepo{promotions: make(map[uuid.UUID]*model.Promotion)}
	promo := &model.Promotion{
		ID:          uuid.New(),
		Type:        model.PromoPercentage,
		DiscountPct: decimal.NewFromInt(20),
		Active:      true,
	}
	repo.promotions[promo.ID] = promo
	r := newPromotionsRouter(repo)

	body := `{"promotionId":"` + promo.ID.String() + `","originalPrice":100,"quantity":1}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/promotions/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.CalculateDiscountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "20", resp.DiscountAmount.String())
	assert.Equal(t, "80", resp.FinalPrice.String())
}

func TestCalculateEndpoint_MissingFields(t *testing.T) {
	r := newPromotionsRouter(&stubPromotionRepo{promotions: make(map[uuid.UUID]*model.Promotion)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/promotions/calculate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestCalculateEndpoint_UnknownPromotion(t *testing.T) {
	r := newPromotionsRouter(&stubPromotionRepo{promotions: make(map[uuid.UUID]*model.Promotion)})

	body := `{"promotionId":"` + uuid.New().String() + `","originalPrice":100,"quantity":1}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/promotions/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Promotion not found")
}

func TestCalculateEndpoint_InactivePromotionIs400(t *testing.T) {
	repo := &stubPromotionRepo{promotions: make(map[uuid.UUID]*model.Promotion)}
	promo := &model.Promotion{
		ID:          uuid.New(),
		Type:        model.PromoPercentage,
		DiscountPct: decimal.NewFromInt(20),
		Active:      false,
	}
	repo.promotions[promo.ID] = promo
	r := newPromotionsRouter(repo)

	body := `{"promotionId":"` + promo.ID.String() + `","originalPrice":100,"quantity":1}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/promotions/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not active")
}
