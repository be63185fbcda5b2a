package handler_test

import (
    "bytes"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/campus-marketplace/internal/booking"
    "github.com/iliyamo/campus-marketplace/internal/booking/bookingtest"
    "github.com/iliyamo/campus-marketplace/internal/handler"
    "github.com/iliyamo/campus-marketplace/internal/identity"
    "github.com/iliyamo/campus-marketplace/internal/model"
    "github.com/iliyamo/campus-marketplace/internal/revenue"
    "github.com/iliyamo/campus-marketplace/internal/router"
)

const secret = "handler-test-secret"

type app struct {
    e     *echo.Echo
    store *bookingtest.Store
}

func newApp(t *testing.T) *app {
    t.Helper()
    store := bookingtest.NewStore()
    listings := bookingtest.NewListings()
    listings.Put(model.ListingSnapshot{ID: "h1", OwnerID: "owner-1", Type: model.ServiceHostel, Name: "North Hall", Price: 5000})
    listings.Put(model.ListingSnapshot{ID: "m1", OwnerID: "owner-2", Type: model.ServiceMess, Name: "Green Mess", Price: 2000})
    listings.Put(model.ListingSnapshot{ID: "g1", OwnerID: "owner-2", Type: model.ServiceGym, Name: "Iron Gym", Price: 1500})
    users := bookingtest.Users{"student-1": {ID: "student-1", Username: "asha", Email: "asha@campus.test"}}

    ledger := booking.NewLedger(store, listings, users, nil)
    agg := revenue.NewAggregator(store, listings, users, nil)

    pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    e := echo.New()
    router.RegisterStudent(e, handler.NewStudentBookingHandler(ledger), secret, pass, pass)
    router.RegisterOwner(e, handler.NewOwnerBookingHandler(ledger), handler.NewRevenueHandler(agg, nil), secret)
    return &app{e: e, store: store}
}

func token(t *testing.T, sub string, roles ...string) string {
    t.Helper()
    tok, err := identity.NewToken(secret, sub, roles, time.Hour)
    require.NoError(t, err)
    return tok.Token
}

func (a *app) call(t *testing.T, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
    t.Helper()
    var buf bytes.Buffer
    if body != nil {
        require.NoError(t, json.NewEncoder(&buf).Encode(body))
    }
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if tok != "" {
        req.Header.Set("Authorization", "Bearer "+tok)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
    t.Helper()
    var out map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

func hostelRequest() map[string]interface{} {
    return map[string]interface{}{
        "serviceType": "hostel",
        "serviceId":   "h1",
        "bookingDetails": map[string]string{
            "checkInDate": "2025-02-01",
            "duration":    "3 months",
        },
    }
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
    a := newApp(t)
    student := token(t, "student-1", model.RoleStudent)
    owner := token(t, "owner-1", model.RoleHostelOwner)
    stranger := token(t, "owner-2", model.RoleMessOwner)

    rec := a.call(t, http.MethodPost, "/v1/bookings", student, hostelRequest())
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    created := decode(t, rec)
    id := created["id"].(string)
    assert.Equal(t, "pending", created["status"])
    assert.Equal(t, "unpaid", created["paymentStatus"])
    assert.Equal(t, "owner-1", created["owner"])

    rec = a.call(t, http.MethodGet, "/v1/owner/bookings?status=pending", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    list := decode(t, rec)
    assert.EqualValues(t, 1, list["count"])
    item := list["items"].([]interface{})[0].(map[string]interface{})
    assert.Equal(t, "North Hall", item["listing"].(map[string]interface{})["name"])
    assert.Equal(t, "asha", item["studentInfo"].(map[string]interface{})["username"])

    rec = a.call(t, http.MethodPatch, "/v1/owner/bookings/"+id+"/status", stranger, map[string]string{"status": "accepted"})
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Equal(t, "Forbidden", decode(t, rec)["error"])

    rec = a.call(t, http.MethodPatch, "/v1/owner/bookings/"+id+"/status", owner, map[string]string{"status": "accepted"})
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "accepted", decode(t, rec)["status"])

    rec = a.call(t, http.MethodPost, "/v1/bookings/"+id+"/cancel", student, nil)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "InvalidTransition", decode(t, rec)["error"])

    rec = a.call(t, http.MethodPatch, "/v1/owner/bookings/"+id+"/payment", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "paid", decode(t, rec)["paymentStatus"])

    rec = a.call(t, http.MethodGet, "/v1/owner/revenue", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    snap := decode(t, rec)
    assert.EqualValues(t, 15000, snap["totalRevenue"])
    assert.EqualValues(t, 1, snap["paidBookingsCount"])
    assert.EqualValues(t, 15000, snap["serviceTypeRevenue"].(map[string]interface{})["hostel"])

    rec = a.call(t, http.MethodGet, "/v1/owner/customers", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 1, decode(t, rec)["count"])

    rec = a.call(t, http.MethodGet, "/v1/bookings/mine", student, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 1, decode(t, rec)["count"])
}

func TestCreateBookingErrors(t *testing.T) {
    a := newApp(t)
    student := token(t, "student-1", model.RoleStudent)

    cases := []struct {
        name   string
        body   map[string]interface{}
        status int
        kind   string
        field  string
    }{
        {"unknown type", map[string]interface{}{"serviceType": "library", "serviceId": "h1"}, http.StatusBadRequest, "InvalidServiceType", ""},
        {"missing listing", map[string]interface{}{"serviceType": "hostel", "serviceId": "zzz"}, http.StatusNotFound, "ListingNotFound", ""},
        {"mess needs start date", map[string]interface{}{
            "serviceType": "mess", "serviceId": "m1",
            "bookingDetails": map[string]string{"duration": "1 month"},
        }, http.StatusBadRequest, "ValidationError", "bookingDetails.startDate"},
        {"bad date", map[string]interface{}{
            "serviceType": "hostel", "serviceId": "h1",
            "bookingDetails": map[string]string{"checkInDate": "next week", "duration": "1 month"},
        }, http.StatusBadRequest, "ValidationError", "bookingDetails.checkInDate"},
        {"listing checked before dates", map[string]interface{}{
            "serviceType": "hostel", "serviceId": "zzz",
            "bookingDetails": map[string]string{"checkInDate": "next week", "duration": "1 month"},
        }, http.StatusNotFound, "ListingNotFound", ""},
        {"overlong duration", map[string]interface{}{
            "serviceType": "gym", "serviceId": "g1",
            "bookingDetails": map[string]string{"duration": strings.Repeat("9", 65)},
        }, http.StatusBadRequest, "ValidationError", "bookingDetails.duration"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := a.call(t, http.MethodPost, "/v1/bookings", student, tc.body)
            assert.Equal(t, tc.status, rec.Code)
            out := decode(t, rec)
            assert.Equal(t, tc.kind, out["error"])
            if tc.field != "" {
                assert.Equal(t, tc.field, out["field"])
            }
        })
    }
}

func TestCreateIgnoresDatesTheTypeDoesNotUse(t *testing.T) {
    a := newApp(t)
    student := token(t, "student-1", model.RoleStudent)
    rec := a.call(t, http.MethodPost, "/v1/bookings", student, map[string]interface{}{
        "serviceType": "gym", "serviceId": "g1",
        "bookingDetails": map[string]string{"checkInDate": "whenever", "duration": "1 month"},
    })
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.NotContains(t, decode(t, rec)["bookingDetails"].(map[string]interface{}), "checkInDate")
}

func TestRoleGates(t *testing.T) {
    a := newApp(t)
    owner := token(t, "owner-1", model.RoleHostelOwner)
    student := token(t, "student-1", model.RoleStudent)

    assert.Equal(t, http.StatusUnauthorized, a.call(t, http.MethodGet, "/v1/bookings/mine", "", nil).Code)
    assert.Equal(t, http.StatusForbidden, a.call(t, http.MethodPost, "/v1/bookings", owner, hostelRequest()).Code)
    assert.Equal(t, http.StatusForbidden, a.call(t, http.MethodGet, "/v1/owner/revenue", student, nil).Code)
}

func TestOwnerStatusFilterValidation(t *testing.T) {
    a := newApp(t)
    owner := token(t, "owner-1", model.RoleHostelOwner)
    rec := a.call(t, http.MethodGet, "/v1/owner/bookings?status=archived", owner, nil)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "status", decode(t, rec)["field"])
}

func TestUnknownBooking(t *testing.T) {
    a := newApp(t)
    owner := token(t, "owner-1", model.RoleHostelOwner)
    rec := a.call(t, http.MethodPatch, "/v1/owner/bookings/nope/status", owner, map[string]string{"status": "rejected"})
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "NotFound", decode(t, rec)["error"])
}

func TestStorageErrorsAreOpaque(t *testing.T) {
    a := newApp(t)
    a.store.Err = fmt.Errorf("dial tcp 10.0.0.5:3306: connection refused")
    owner := token(t, "owner-1", model.RoleHostelOwner)
    rec := a.call(t, http.MethodGet, "/v1/owner/bookings", owner, nil)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.NotContains(t, rec.Body.String(), "10.0.0.5")
    assert.Equal(t, "StorageError", decode(t, rec)["error"])
}

func TestRevenueDownloads(t *testing.T) {
    a := newApp(t)
    owner := token(t, "owner-1", model.RoleHostelOwner)

    rec := a.call(t, http.MethodGet, "/v1/owner/revenue/export.xlsx", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "application/vnd.openxmlformats"))
    assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".xlsx")
    assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

    rec = a.call(t, http.MethodGet, "/v1/owner/revenue/statement.pdf", owner, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
    assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}
