package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_userApi_register(t *testing.T) {
	testutil.ResetDB(t, db)
	emailsvc.ClearSentMessages()

	existing := createStudent(t, "Taken", "taken@test.cd")

	reg := func(name, email, role, pwd, confirm string) []byte {
		return marchallObj(t, map[string]string{
			"name": name, "email": email, "role": role,
			"password": pwd, "password_confirm": confirm,
		})
	}

	tests := []httpTest{
		{
			name: "role is required", method: http.MethodPost, path: "/v1/users/register",
			body:     reg("New Kid", "kid@test.cd", "", "password", "password"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown role rejected", method: http.MethodPost, path: "/v1/users/register",
			body:     reg("New Kid", "kid@test.cd", "admin", "password", "password"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "password confirmation must match", method: http.MethodPost, path: "/v1/users/register",
			body:     reg("New Kid", "kid@test.cd", "student", "password", "passw0rd"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "email already in use", method: http.MethodPost, path: "/v1/users/register",
			body:     reg("Copy Cat", existing.Email, "student", "S3cret!pwd", "S3cret!pwd"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "register student", method: http.MethodPost, path: "/v1/users/register",
			body:     reg("New Kid", "kid@test.cd", "student", "S3cret!pwd", "S3cret!pwd"),
			wantCode: http.StatusCreated,
		},
		{
			name: "register teacher", method: http.MethodPost, path: "/v1/users/register",
			body:     reg("Prof", "prof@test.cd", "teacher", "S3cret!pwd", "S3cret!pwd"),
			wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, tests)

	// new accounts start unverified and get a welcome email
	usr, err := usrRepo.GetUser(ctxBG, user.GetFilter{Email: "kid@test.cd"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if usr.EmailVerified {
		t.Error("registered user is already verified")
	}
	if len(emailsvc.SentMessages) != 2 {
		t.Errorf("sent %d emails, want 2 welcome emails", len(emailsvc.SentMessages))
	}
}

func Test_userApi_login(t *testing.T) {
	testutil.ResetDB(t, db)

	student := createStudent(t, "Stud", "stud@test.cd")
	deactivated := createStudent(t, "Gone", "gone@test.cd")
	deactivated.IsActive = false
	if _, err := usrRepo.UpdateUser(ctxBG, deactivated); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	creds := func(email, pwd string) []byte {
		return marchallObj(t, LoginRequest{Email: email, Password: pwd})
	}
	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "email and password required", method: http.MethodPost, path: "/v1/users/login",
			body: creds("", ""), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login",
			body: creds("ghost@test.cd", "password"), wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body: creds(student.Email, "letmein"), wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body: creds(deactivated.Email, "password"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, tests)

	// happy path returns a usable token
	req, rec := newRequest(http.MethodPost, "/v1/users/login", creds(student.Email, "password"))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling LoginResponse: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /users/me code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func Test_userApi_retrieveSelf(t *testing.T) {
	testutil.ResetDB(t, db)

	student := createStudent(t, "Stud", "stud@test.cd")

	tests := []httpTest{
		{
			name: "auth required", path: "/v1/users/me",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "own account returned", path: "/v1/users/me", token: getToken(t, student),
			wantData: marchallObj(t, student),
		},
	}
	runHTTPTests(t, tests)
}

func Test_userApi_userQuery(t *testing.T) {
	testutil.ResetDB(t, db)

	teacher := createTeacher(t, "Teach", "teach@test.cd")
	amina := createStudent(t, "Amina", "amina@test.cd")
	zawadi := createStudent(t, "Zawadi", "zawadi@test.cd")
	token := getToken(t, teacher)

	tests := []httpTest{
		{
			name: "auth required", path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "teachers only", path: "/v1/users", token: getToken(t, amina),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "operation not allowed for this role"}),
		},
		{
			name: "search (unknown)", path: "/v1/users?search=lol", token: token,
			wantData: marchallList(t),
		},
		{
			name: "search by name", path: "/v1/users?search=amina", token: token,
			wantData: marchallList(t, amina),
		},
		{
			name: "filter by role", path: "/v1/users?role=student&ordering=created_at", token: token,
			wantData: marchallList(t, amina, zawadi),
		},
		{
			name: "order by email desc", path: "/v1/users?role=student&ordering=-email", token: token,
			wantData: marchallList(t, zawadi, amina),
		},
		{
			name: "unsortable field rejected", path: "/v1/users?ordering=password_hash", token: token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"ordering": "field is not sortable"}),
		},
		{
			name:     "ordering is a column name, not sql",
			path:     "/v1/users?ordering=" + url.QueryEscape(`(SELECT password_hash FROM "user" LIMIT 1)`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"ordering": "field is not sortable"}),
		},
	}
	runHTTPTests(t, tests)
}
