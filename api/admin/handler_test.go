package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/itemruntime/api/admin"
	"github.com/kasuganosora/itemruntime/game/inventory"
	"github.com/kasuganosora/itemruntime/game/item"
	"github.com/kasuganosora/itemruntime/game/player"
	"github.com/kasuganosora/itemruntime/host"
	"github.com/kasuganosora/itemruntime/savestore"
	"github.com/kasuganosora/itemruntime/scheduler"
	"github.com/kasuganosora/itemruntime/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "secret"

func init() { gin.SetMode(gin.TestMode) }

func newAdminRouter(t *testing.T) (*gin.Engine, *host.Host, *savestore.Store) {
	t.Helper()
	st := savestore.New(testutil.SetupTestDB(t), nil, 0, nil)
	h := host.New(player.NewSessionManager(nil), st, player.Deps{
		Resolver:  testutil.Registry(),
		Sets:      testutil.Sets(),
		Buffs:     testutil.Buffs(),
		Inventory: inventory.Config{Capacity: 8},
	}, nil)
	t.Cleanup(func() { h.Shutdown(context.Background()) })
	sched := scheduler.New(nil)
	t.Cleanup(sched.Stop)

	r := gin.New()
	admin.NewHandler(h, sched, nil).Register(r, key)
	return r, h, st
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestHealth_NoKeyNeeded(t *testing.T) {
	r, _, _ := newAdminRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAdmin_RequiresKey(t *testing.T) {
	r, _, _ := newAdminRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/owners", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_OwnerLifecycle(t *testing.T) {
	r, h, st := newAdminRouter(t)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/admin/owners/p1/open", `{"level":3}`).Code)

	w := do(r, http.MethodPost, "/api/admin/owners/p1/items", `{"template_id":"sword"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["added"])

	w = do(r, http.MethodPost, "/api/admin/owners/p1/items", `{"template_id":"potion","quantity":40}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 35, body["added"])
	assert.EqualValues(t, 5, body["dropped"])
	assert.Equal(t, string(item.ReasonInventoryFull), body["reason"])

	assert.Equal(t, http.StatusBadRequest,
		do(r, http.MethodPost, "/api/admin/owners/p1/items", `{"template_id":"nope"}`).Code)

	s := h.Sessions().Get("p1")
	require.NotNil(t, s)
	var sword string
	s.Do(func(v player.View) {
		sv, _ := v.Inventory().Get(0)
		sword = sv.Instance.ID()
	})
	require.Equal(t, item.ReasonNone, s.Equip(sword))

	w = do(r, http.MethodGet, "/api/admin/owners/p1/inventory", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 8, body["capacity"])
	assert.Len(t, body["slots"], 8)

	w = do(r, http.MethodGet, "/api/admin/owners/p1/equipment", "")
	require.Equal(t, http.StatusOK, w.Code)
	weapon := decode(t, w)["bindings"].(map[string]interface{})["weapon"].(map[string]interface{})
	assert.Equal(t, sword, weapon["id"])
	assert.Equal(t, true, weapon["equipped"])

	w = do(r, http.MethodGet, "/api/admin/owners/p1/bonuses", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	attack := body["bonuses"].(map[string]interface{})["attack"].(map[string]interface{})
	assert.EqualValues(t, 5, attack["flat"])
	assert.EqualValues(t, 15, body["stats"].(map[string]interface{})["attack"])

	w = do(r, http.MethodGet, "/api/admin/owners", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/admin/owners/p1/save", "").Code)
	rev, err := st.Revision(context.Background(), "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rev)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/admin/owners/p1/close", "").Code)
	assert.Zero(t, h.Sessions().Count())
	rev, err = st.Revision(context.Background(), "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, rev)
}

func TestAdmin_DamageAndRepair(t *testing.T) {
	r, h, _ := newAdminRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/admin/owners/p1/open", `{"level":3}`).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/admin/owners/p1/items", `{"template_id":"sword"}`).Code)

	s := h.Sessions().Get("p1")
	var sword string
	s.Do(func(v player.View) {
		sv, _ := v.Inventory().Get(0)
		sword = sv.Instance.ID()
	})

	assert.Equal(t, http.StatusConflict,
		do(r, http.MethodPost, "/api/admin/owners/p1/equipment/weapon/damage", `{"amount":5}`).Code)
	require.Equal(t, item.ReasonNone, s.Equip(sword))
	assert.Equal(t, 5.0, s.TotalBonuses().Get(item.StatAttack).Flat)

	w := do(r, http.MethodPost, "/api/admin/owners/p1/equipment/weapon/damage", `{"amount":100}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "weapon", body["slot"])
	assert.Equal(t, true, body["broken"])
	assert.EqualValues(t, 0, body["item"].(map[string]interface{})["durability"])
	assert.Equal(t, 0.0, s.TotalBonuses().Get(item.StatAttack).Flat)

	w = do(r, http.MethodPost, "/api/admin/owners/p1/equipment/weapon/repair", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["broken"])
	assert.EqualValues(t, 40, body["item"].(map[string]interface{})["durability"])
	assert.Equal(t, 5.0, s.TotalBonuses().Get(item.StatAttack).Flat)

	assert.Equal(t, http.StatusBadRequest,
		do(r, http.MethodPost, "/api/admin/owners/p1/equipment/tail/repair", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		do(r, http.MethodPost, "/api/admin/owners/p1/equipment/weapon/damage", `{"amount":0}`).Code)
	assert.Equal(t, http.StatusNotFound,
		do(r, http.MethodPost, "/api/admin/owners/p9/equipment/weapon/repair", "").Code)
}

func TestAdmin_UnknownOwner(t *testing.T) {
	r, _, _ := newAdminRouter(t)
	for _, p := range []string{"inventory", "equipment", "bonuses"} {
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/admin/owners/ghost/"+p, "").Code, p)
	}
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/admin/owners/ghost/save", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/admin/owners/ghost/close", "").Code)
	assert.Equal(t, http.StatusNotFound,
		do(r, http.MethodPost, "/api/admin/owners/ghost/items", `{"template_id":"sword"}`).Code)
}

func TestAdmin_Metrics(t *testing.T) {
	r, _, _ := newAdminRouter(t)
	w := do(r, http.MethodGet, "/api/admin/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["sessions"])
}
