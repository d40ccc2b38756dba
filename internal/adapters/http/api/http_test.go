package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"plinth/internal/adapters/http/api"
	"plinth/internal/adapters/repository/memory"
	"plinth/internal/app"
	"plinth/internal/domain/schema"
	"plinth/internal/router"
	"plinth/pkg/logger"
)

func itemsCollection() schema.Collection {
	return schema.Collection{
		Name: "items",
		Key:  "id",
		Columns: []schema.Column{
			{Name: "name", Type: schema.Text},
			{Name: "price", Type: schema.Double, Nullable: true},
		},
	}
}

// newTestServer wires a real service over the memory store behind the router.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if err := logger.InitWithWriter(io.Discard); err != nil {
		t.Fatalf("logger init: %v", err)
	}

	svc := app.New(
		app.WithStore(memory.New()),
		app.WithCollections(itemsCollection()),
		app.WithLogger(logger.Get()),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("service start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	r := router.New(router.WithLogger(logger.Get()))
	if err := api.NewServer(svc).Register(context.Background(), r); err != nil {
		t.Fatalf("register routes: %v", err)
	}

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestItemsScenario(t *testing.T) {
	Convey("Given a server with an items collection", t, func() {
		ts := newTestServer(t)

		Convey("When an item is created with an explicit id", func() {
			status, body := do(t, http.MethodPost, ts.URL+"/items", `{"id":"1","name":"a"}`)

			Convey("Then it is created and echoed back", func() {
				So(status, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldEqual, "1")
				So(body["name"], ShouldEqual, "a")
			})

			Convey("And GET /items/1 returns it", func() {
				status, body := do(t, http.MethodGet, ts.URL+"/items/1", "")
				So(status, ShouldEqual, http.StatusOK)
				So(body["name"], ShouldEqual, "a")
			})

			Convey("And GET /items/2 is a 404", func() {
				status, body := do(t, http.MethodGet, ts.URL+"/items/2", "")
				So(status, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})

			Convey("And creating the same id again is a 409", func() {
				status, body := do(t, http.MethodPost, ts.URL+"/items", `{"id":"1","name":"dup"}`)
				So(status, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "conflict")
			})
		})
	})
}

func TestItemsCRUD(t *testing.T) {
	Convey("Given a server with one item", t, func() {
		ts := newTestServer(t)
		status, _ := do(t, http.MethodPost, ts.URL+"/items", `{"id":"1","name":"a","price":9.5}`)
		So(status, ShouldEqual, http.StatusCreated)

		Convey("PUT patches fields and keeps the rest", func() {
			status, body := do(t, http.MethodPut, ts.URL+"/items/1", `{"price":12.5}`)
			So(status, ShouldEqual, http.StatusOK)
			So(body["price"], ShouldEqual, 12.5)
			So(body["name"], ShouldEqual, "a")
		})

		Convey("PUT on an absent id is a 404", func() {
			status, body := do(t, http.MethodPut, ts.URL+"/items/9", `{"price":1.0}`)
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})

		Convey("DELETE is a 204 and is idempotent", func() {
			status, _ := do(t, http.MethodDelete, ts.URL+"/items/1", "")
			So(status, ShouldEqual, http.StatusNoContent)

			status, _ = do(t, http.MethodDelete, ts.URL+"/items/1", "")
			So(status, ShouldEqual, http.StatusNoContent)

			status, _ = do(t, http.MethodGet, ts.URL+"/items/1", "")
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET /items lists records", func() {
			status, _ := do(t, http.MethodPost, ts.URL+"/items", `{"id":"2","name":"b"}`)
			So(status, ShouldEqual, http.StatusCreated)

			status, body := do(t, http.MethodGet, ts.URL+"/items", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["count"], ShouldEqual, 2)
		})

		Convey("POST without an id assigns one", func() {
			status, body := do(t, http.MethodPost, ts.URL+"/items", `{"name":"generated"}`)
			So(status, ShouldEqual, http.StatusCreated)
			So(body["id"], ShouldNotBeEmpty)
		})
	})
}

func TestItemsValidation(t *testing.T) {
	Convey("Given a server with an items collection", t, func() {
		ts := newTestServer(t)

		Convey("A non-object body is a 400", func() {
			status, body := do(t, http.MethodPost, ts.URL+"/items", `[1,2,3]`)
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("An empty body is a 400", func() {
			status, _ := do(t, http.MethodPost, ts.URL+"/items", "")
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A missing required field is a 400", func() {
			status, body := do(t, http.MethodPost, ts.URL+"/items", `{"id":"1","price":1.0}`)
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["message"], ShouldContainSubstring, "name")
		})

		Convey("An unknown field is a 400", func() {
			status, _ := do(t, http.MethodPost, ts.URL+"/items", `{"id":"1","name":"a","bogus":true}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A bad limit on list is a 400", func() {
			status, _ := do(t, http.MethodGet, ts.URL+"/items?limit=nope", "")
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts := newTestServer(t)

		Convey("GET /healthz reports ok", func() {
			status, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("GET /stats exposes counters", func() {
			status, body := do(t, http.MethodGet, ts.URL+"/stats", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body, ShouldContainKey, "reads")
			So(body, ShouldContainKey, "writes")
		})

		Convey("GET /metrics serves the Prometheus exposition", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			raw, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, "plinth_")
		})

		Convey("An unknown path is a 404 for any method", func() {
			for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
				status, _ := do(t, method, ts.URL+"/unknown", "")
				So(status, ShouldEqual, http.StatusNotFound)
			}
		})
	})
}
