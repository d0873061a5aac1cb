// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halvorn/taskind/internal/applog"
	"github.com/halvorn/taskind/internal/httpapi"
	"github.com/halvorn/taskind/internal/store"
	"github.com/halvorn/taskind/internal/store/memstore"
	"github.com/halvorn/taskind/pkg/depman"
)

func testServer(t *testing.T) *httpapi.Server {
	t.Helper()
	st := memstore.New()
	require.NoError(t, st.UpsertCategory(store.Category{ID: 100, Name: "chores"}))
	require.NoError(t, st.UpsertTodo(store.Todo{ID: 1, Title: "dishes", CategoryID: 100, Status: store.StatusIncomplete}))

	m := depman.NewManager(applog.New(nil, "httpapi-test"))
	reload := func() error {
		return m.Load(
			[]depman.CategoryRecord{{ID: 100, Name: "chores"}},
			[]depman.TaskRecord{{ID: 1, CategoryID: 100, Name: "dishes"}},
			nil,
			depman.Config{Tasks: map[string]depman.TaskConfig{}},
		)
	}
	require.NoError(t, reload())

	return httpapi.NewServer(m, st, applog.New(nil, "httpapi-test"), reload)
}

func TestRecommendedTodosEndpoint(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/recommended_todos", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[1]", rec.Body.String())
}

func TestDependencyGraphEndpoint(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/dependency_graph", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "task:1")
}

func TestReloadEndpoint(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}
