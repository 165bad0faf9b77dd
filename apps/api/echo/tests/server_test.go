package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/user"
)

func TestServer_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Shule API!", rec.Body.String())
}

func TestServer_identity(t *testing.T) {
	app := setup(t)

	student := app.createUser(t, "Amani", user.RoleStudent, "CS-A")
	naughty := app.createUser(t, "Naughty", user.RoleStudent, "CS-A", false)

	unknownToken, err := GenerateToken(app.conf.IdentitySecret, NewClaims("prov_unknown", time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	forgedToken, err := GenerateToken("not-the-secret", NewClaims(student.Subject, time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	expiredToken, err := GenerateToken(app.conf.IdentitySecret, NewClaims(student.Subject, -time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	app.run(t, []httpTest{
		{name: "Auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "forged token", path: "/v1/users/me", token: forgedToken, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "expired token", path: "/v1/users/me", token: expiredToken, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "unknown subject", path: "/v1/users/me", token: unknownToken, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "unknown user"}),
		},
		{
			name: "deactivated account", path: "/v1/users/me", token: app.getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "resolved", path: "/v1/users/me", token: app.getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, student),
		},
		{
			name: "trailing slash", path: "/v1/users/me/", token: app.getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, student),
		},
		{
			name: "unknown route", path: "/v1/nope", token: app.getToken(t, student), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Not Found"}),
		},
	})
}
