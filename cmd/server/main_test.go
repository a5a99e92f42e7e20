package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/receiptsplit/internal/cache"
)

func TestCorsMiddleware(t *testing.T) {
	called := false
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/receiptsplit.v1.ReceiptService/GetReceipt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/receiptsplit.v1.ReceiptService/GetReceipt", nil))
	assert.True(t, called)
}

func TestSettlementCache(t *testing.T) {
	ctx := context.Background()

	assert.IsType(t, cache.Nop{}, settlementCache(ctx, ""))

	mr := miniredis.RunT(t)
	assert.IsType(t, &cache.RedisCache{}, settlementCache(ctx, mr.Addr()))

	addr := mr.Addr()
	mr.Close()
	assert.IsType(t, cache.Nop{}, settlementCache(ctx, addr))
}
