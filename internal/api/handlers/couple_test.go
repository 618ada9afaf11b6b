package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/api/handlers"
	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoupleHandler_KeyLifecycle(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/couple/my-key"), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var before handlers.KeyStatusResponse
	testutil.AssertJSONResponse(t, resp, &before)
	assert.Nil(t, before.CoupleKey)
	assert.Nil(t, before.Gender)
	assert.False(t, before.IsConnected)

	resp = testutil.DoJSON(t, http.MethodPut, ts.APIURL("/couple/gender"), token, handlers.SelectGenderRequest{Gender: "other"})
	testutil.AssertErrorCode(t, resp, http.StatusBadRequest, "INVALID_GENDER")

	resp = testutil.DoJSON(t, http.MethodPut, ts.APIURL("/couple/gender"), token, handlers.SelectGenderRequest{Gender: "groom"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var selected handlers.KeyStatusResponse
	testutil.AssertJSONResponse(t, resp, &selected)
	require.NotNil(t, selected.CoupleKey)
	assert.Len(t, *selected.CoupleKey, 8)
	assert.Equal(t, domain.GenderGroom, *selected.Gender)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	resp = testutil.DoJSON(t, http.MethodGet, ts.APIURL("/couple/my-key"), token, nil)
	var after handlers.KeyStatusResponse
	testutil.AssertJSONResponse(t, resp, &after)
	assert.Equal(t, *selected.CoupleKey, *after.CoupleKey)

	resp = testutil.DoJSON(t, http.MethodPut, ts.APIURL("/couple/gender"), token, handlers.SelectGenderRequest{Gender: "BRIDE"})
	testutil.AssertErrorCode(t, resp, http.StatusConflict, "GENDER_LOCKED")
}

func TestCoupleHandler_ConnectFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	groom, groomToken := testutil.NewUserBuilder().WithDisplayName("Jun").Groom("AAAA1111").BuildAndAuthenticate(t, ts)
	bride, brideToken := testutil.NewUserBuilder().WithDisplayName("Seo").Bride("BBBB2222").BuildAndAuthenticate(t, ts)

	resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/couple/connect"), groomToken,
		handlers.ConnectRequest{PartnerCoupleKey: "bbbb2222"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var pending handlers.PendingResponse
	testutil.AssertJSONResponse(t, resp, &pending)
	assert.True(t, pending.WaitingForPartner)
	assert.Equal(t, domain.ConnectStatusPending, pending.Status)

	resp = testutil.DoJSON(t, http.MethodPost, ts.APIURL("/couple/connect"), brideToken,
		handlers.ConnectRequest{PartnerCoupleKey: "AAAA1111"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var connected handlers.ConnectedResponse
	testutil.AssertJSONResponse(t, resp, &connected)
	assert.Equal(t, domain.ConnectStatusConnected, connected.Status)
	assert.Equal(t, groom.ID, connected.PartnerID)
	assert.Equal(t, "Jun", connected.PartnerNickname)
	assert.NotZero(t, connected.CoupleID)
	assert.WithinDuration(t, time.Now(), connected.ConnectedAt, time.Minute)

	for _, tc := range []struct {
		token     string
		partnerID uint64
		nickname  string
	}{
		{token: groomToken, partnerID: bride.ID, nickname: "Seo"},
		{token: brideToken, partnerID: groom.ID, nickname: "Jun"},
	} {
		resp = testutil.DoJSON(t, http.MethodGet, ts.APIURL("/couple/info"), tc.token, nil)
		var info handlers.CoupleInfoResponse
		testutil.AssertJSONResponse(t, resp, &info)
		assert.True(t, info.IsConnected)
		require.NotNil(t, info.CoupleID)
		assert.Equal(t, connected.CoupleID, *info.CoupleID)
		require.NotNil(t, info.Partner)
		assert.Equal(t, tc.partnerID, info.Partner.ID)
		assert.Equal(t, tc.nickname, info.Partner.Nickname)

		resp = testutil.DoJSON(t, http.MethodGet, ts.APIURL("/couple/scope"), tc.token, nil)
		var scope handlers.ScopeResponse
		testutil.AssertJSONResponse(t, resp, &scope)
		assert.Equal(t, domain.ScopeKindCouple, scope.Kind)
		assert.Equal(t, connected.CoupleID, scope.ID)
	}

	resp = testutil.DoJSON(t, http.MethodPost, ts.APIURL("/couple/connect"), groomToken,
		handlers.ConnectRequest{PartnerCoupleKey: "BBBB2222"})
	testutil.AssertErrorCode(t, resp, http.StatusConflict, "ALREADY_CONNECTED")
}

func TestCoupleHandler_ConnectErrors(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, groomToken := testutil.NewUserBuilder().Groom("ERRG0001").BuildAndAuthenticate(t, ts)
	testutil.NewUserBuilder().Groom("ERRG0002").Build(t, ts.DB.DB)
	_, noKeyToken := testutil.NewUserBuilder().WithGender(domain.GenderBride).BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		token          string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{name: "malformed body", token: groomToken, body: "not an object", expectedStatus: http.StatusBadRequest, expectedCode: "INVALID_BODY"},
		{name: "malformed key", token: groomToken, body: handlers.ConnectRequest{PartnerCoupleKey: "x"}, expectedStatus: http.StatusBadRequest, expectedCode: "MALFORMED_KEY"},
		{name: "unknown key", token: groomToken, body: handlers.ConnectRequest{PartnerCoupleKey: "QQQQ0000"}, expectedStatus: http.StatusNotFound, expectedCode: "INVALID_KEY"},
		{name: "own key", token: groomToken, body: handlers.ConnectRequest{PartnerCoupleKey: "ERRG0001"}, expectedStatus: http.StatusBadRequest, expectedCode: "SELF_CONNECT"},
		{name: "same gender", token: groomToken, body: handlers.ConnectRequest{PartnerCoupleKey: "ERRG0002"}, expectedStatus: http.StatusBadRequest, expectedCode: "SAME_GENDER"},
		{name: "no key yet", token: noKeyToken, body: handlers.ConnectRequest{PartnerCoupleKey: "ERRG0001"}, expectedStatus: http.StatusBadRequest, expectedCode: "KEY_NOT_GENERATED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.DoJSON(t, http.MethodPost, ts.APIURL("/couple/connect"), tt.token, tt.body)
			testutil.AssertErrorCode(t, resp, tt.expectedStatus, tt.expectedCode)
		})
	}
}

func TestCoupleHandler_RequiresAuth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	for _, path := range []string{"/couple/my-key", "/couple/info", "/couple/scope"} {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL(path), "", nil)
		testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	}
}
