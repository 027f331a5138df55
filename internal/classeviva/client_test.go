package classeviva

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classeviva-tools/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const (
	testUsername = "S1234567P"
	testPassword = "hunter2"
	testCookie   = "PHPSESSID"
)

type fakeSite struct {
	// status returned by the redirect confirmation, 0 means 200
	redirectStatus int
	// status returned by the auth endpoint, 0 means it answers normally
	authStatus int
}

func requireSession(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(testCookie)
	if err != nil || cookie.Value != "logged-in" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func serve(contents string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(contents))
	}
}

func (f fakeSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /home/app/default/login.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: testCookie, Value: "anonymous", Path: "/"})
		w.Write([]byte("<html><form></form></html>"))
	})
	mux.HandleFunc("POST /auth-p7/app/default/AuthApi4.php", func(w http.ResponseWriter, r *http.Request) {
		if f.authStatus != 0 {
			w.WriteHeader(f.authStatus)
			w.Write([]byte("servizio non disponibile"))
			return
		}
		w.Header().Set("content-type", "application/json")
		if r.FormValue("uid") != testUsername || r.FormValue("pwd") != testPassword {
			w.Write([]byte(`{"data":{"auth":{"loggedIn":false,"errors":["username o password non validi"]}},"error":[]}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: testCookie, Value: "logged-in", Path: "/"})
		w.Write([]byte(`{"data":{"auth":{"loggedIn":true,"errors":[]}},"error":[]}`))
	})
	mux.HandleFunc("POST /home/app/default/login_ok_redirect.php", func(w http.ResponseWriter, r *http.Request) {
		if f.redirectStatus != 0 {
			w.WriteHeader(f.redirectStatus)
			return
		}
		requireSession(w, r)
	})
	mux.HandleFunc("GET /cvv/app/default/gioprof_selezione.php", serve(subjectsPage))
	mux.HandleFunc("GET /cvv/app/default/coordinatore_selezione.php", serve(classesPage))
	mux.HandleFunc("GET /cvv/app/default/regclasse.php", serve(studentsPage))
	mux.HandleFunc("GET /cvv/app/default/regvoti.php", serve(gradesPage))
	mux.HandleFunc("GET /cvv/app/default/recuperi_docente.php", serve(testsPage))
	mux.HandleFunc("GET /cvv/app/default/sc_medie.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("classe_id") != "1391900" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		serve(averagesPage)(w, r)
	})
	mux.HandleFunc("POST /cvv/app/default/agenda.php", func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}
		if r.FormValue("classe_id") != "1391771" || r.FormValue("start") != "2023-10-23" {
			w.Write([]byte("[]"))
			return
		}
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(agendaEvents))
	})
	return mux
}

func testOptions(baseUrl, password string) Options {
	return Options{
		BaseUrl:  baseUrl,
		Username: testUsername,
		Password: password,
		// no pacing against the local server
		RequestsPerSecond: -1,
		TimeoutSeconds:    5,
	}
}

func TestOpenAndExtract(t *testing.T) {
	server := httptest.NewServer(fakeSite{}.handler())
	defer server.Close()

	ctx := context.Background()
	rec := &telemetry.Recorder{}
	client, err := Open(ctx, testOptions(server.URL, testPassword), rec)
	require.NoError(t, err)
	require.Equal(t, "/cvv/app/default/gioprof_selezione.php", client.Options().Endpoints.Subjects)

	subjects, err := client.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.Equal(t, server.URL+"/cvv/app/default/regclasse.php?classe_id=1391771&materia=57", subjects[0].RosterUrl)

	students, err := client.Students(ctx, subjects[0])
	require.NoError(t, err)
	require.Len(t, students, 3)

	terms, err := client.DiscoverTerms(ctx, subjects[0])
	require.NoError(t, err)
	require.Len(t, terms.Tests, 2)

	scores, err := client.Tests(ctx, terms, 1, students)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	require.Equal(t, 9, *scores[2].Scores[1])

	_, err = client.Tests(ctx, terms, 2, students)
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, page_tests, extractionErr.Page)

	classes, err := client.Classes(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 2)

	byClass, err := client.StudentsByClass(ctx, classes[0])
	require.NoError(t, err)
	require.Len(t, byClass, 3)

	averages, err := client.AverageGrades(ctx, classes[0], "1")
	require.NoError(t, err)
	require.Len(t, averages, 2)

	_, err = client.AverageGrades(ctx, classes[1], "1")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, http.StatusNotFound, transportErr.Status)

	items, err := client.Agenda(ctx, AgendaQuery{
		ClassCode: subjects[0].ClassCode("classe_id"),
		Start:     time.Date(2023, time.October, 23, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2023, time.October, 30, 0, 0, 0, 0, time.UTC),
		AuthorId:  "4242",
		Location:  time.UTC,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotEmpty(t, rec.Reports("count", report_client_get_subjects))
	require.NotEmpty(t, rec.Reports("broken", report_client_fetch))
}

func TestOpenInvalidCredentials(t *testing.T) {
	server := httptest.NewServer(fakeSite{}.handler())
	defer server.Close()

	rec := &telemetry.Recorder{}
	_, err := Open(context.Background(), testOptions(server.URL, "wrong"), rec)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "credentials", authErr.Step)
	require.True(t, errors.Is(err, ErrInvalidCredentials))
	require.Len(t, rec.Reports("broken", report_client_login), 1)
}

func TestOpenRedirectFailure(t *testing.T) {
	server := httptest.NewServer(fakeSite{redirectStatus: http.StatusInternalServerError}.handler())
	defer server.Close()

	_, err := Open(context.Background(), testOptions(server.URL, testPassword), &telemetry.Recorder{})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "redirect confirmation", authErr.Step)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, http.StatusInternalServerError, transportErr.Status)
}

func TestOpenAuthUnavailableKeepsPasswordOut(t *testing.T) {
	server := httptest.NewServer(fakeSite{authStatus: http.StatusServiceUnavailable}.handler())
	defer server.Close()

	rec := &telemetry.Recorder{}
	_, err := Open(context.Background(), testOptions(server.URL, testPassword), rec)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, http.StatusServiceUnavailable, transportErr.Status)
	require.NotContains(t, err.Error(), testPassword)

	reports := 0
	for _, level := range []string{"broken", "warning", "debug"} {
		for _, report := range rec.Reports(level, "") {
			reports++
			require.NotContains(t, fmt.Sprint(report.Params...), testPassword, "%s report %s", level, report.Id)
		}
	}
	require.NotZero(t, reports)
	require.NotEmpty(t, rec.Reports("debug", "http.response"))
}

func TestOpenUnreachable(t *testing.T) {
	server := httptest.NewServer(fakeSite{}.handler())
	baseUrl := server.URL
	server.Close()

	_, err := Open(context.Background(), testOptions(baseUrl, testPassword), &telemetry.Recorder{})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Zero(t, transportErr.Status)
}

func TestCheckAuthResponse(t *testing.T) {
	require.NoError(t, checkAuthResponse([]byte("<html></html>")))
	require.NoError(t, checkAuthResponse([]byte(`{"data":{"auth":{"loggedIn":true}}}`)))
	require.ErrorIs(t, checkAuthResponse([]byte(`{"error":["bad"]}`)), ErrInvalidCredentials)
	require.ErrorIs(t, checkAuthResponse([]byte(`{"data":{"auth":{"loggedIn":false}}}`)), ErrInvalidCredentials)
}

func TestSubjectAliasIdempotent(t *testing.T) {
	names := []string{
		"LINGUA E LETTERATURA ITALIANA",
		"Matematica",
		"COMPLEMENTI DI MATEMATICA",
		"STORIA DELL'ARTE",
		"SCIENZE MOTORIE E SPORTIVE",
		"EDUCAZIONE FISICA",
		"FISICA",
		"TELECOMUNICAZIONI",
		"LABORATORIO DI CUCINA",
	}
	for _, name := range names {
		once := SubjectAlias(name)
		require.Equal(t, once, SubjectAlias(once), name)
	}
	for _, rule := range subjectAliases {
		require.Equal(t, rule.alias, SubjectAlias(rule.alias), rule.contains)
	}
	require.Equal(t, "LABORATORIO DI CUCINA", SubjectAlias("LABORATORIO DI CUCINA"))
	require.Equal(t, "COMPL. MAT.", SubjectAlias("Complementi di matematica"))
}
