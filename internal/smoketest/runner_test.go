package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/homeprice/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

func fakeService(healthy bool) (*httptest.Server, *atomic.Int64) {
	var posted atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/form-options", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"fields": [
				{"name": "LivingArea", "kind": "number", "min": 200, "max": 10000, "step": 50},
				{"name": "PoolPrivateYN", "kind": "bool"}
			],
			"groups": [{"name": "stories", "options": ["One", "Two"]}]
		}`))
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		n := posted.Add(1)
		var req predictRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Address == "000 Nowhere" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":"geocode_not_found","message":"Address not found."}`))
			return
		}
		price := 100000 + float64(n)
		_ = json.NewEncoder(w).Encode(map[string]any{"price": price, "formatted_price": "$1"})
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"requests": 4, "succeeded": 4}`))
	})
	return httptest.NewServer(mux), &posted
}

func TestRun(t *testing.T) {
	Convey("Given a healthy service", t, func() {
		srv, posted := fakeService(true)
		defer srv.Close()

		Convey("When running against resolvable addresses", func() {
			report, err := Run(context.Background(), &Config{
				BaseURL: srv.URL, Requests: 4, Workers: 2, Timeout: time.Second, Seed: 7,
				Addresses: []string{"1 Main St"},
			})

			Convey("Then every request succeeds", func() {
				So(err, ShouldBeNil)
				So(report.Sent, ShouldEqual, 4)
				So(report.Succeeded, ShouldEqual, 4)
				So(posted.Load(), ShouldEqual, 4)
				So(report.MinPrice, ShouldBeGreaterThan, 100000)
				So(report.MaxPrice, ShouldBeLessThanOrEqualTo, 100004)
				So(report.Server["requests"], ShouldEqual, 4.0)
			})

			Convey("Then the report prints", func() {
				var buf bytes.Buffer
				PrintReport(&buf, report)
				So(buf.String(), ShouldContainSubstring, "Succeeded:  4")
			})
		})

		Convey("When addresses do not geocode", func() {
			report, err := Run(context.Background(), &Config{
				BaseURL: srv.URL, Requests: 3, Workers: 1, Timeout: time.Second,
				Addresses: []string{"000 Nowhere"},
			})

			Convey("Then failures are grouped by error code", func() {
				So(err, ShouldBeNil)
				So(report.Succeeded, ShouldEqual, 0)
				So(report.ByCode["geocode_not_found"], ShouldEqual, 3)
				So(report.MinPrice, ShouldEqual, 0.0)
			})
		})
	})

	Convey("Given an unhealthy service", t, func() {
		srv, _ := fakeService(false)
		defer srv.Close()

		Convey("Then Run stops before sending estimates", func() {
			_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Requests: 1, Workers: 1, Timeout: time.Second})
			So(err, ShouldWrap, ErrUnhealthy)
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given form options", t, func() {
		var opts formOptions
		So(json.Unmarshal([]byte(`{
			"fields": [
				{"name": "LivingArea", "kind": "number", "min": 200, "max": 10000, "step": 50},
				{"name": "ViewYN", "kind": "bool"}
			],
			"groups": [{"name": "district", "options": ["Downtown", "Uptown"]}]
		}`), &opts), ShouldBeNil)

		reqs := generate(opts, DefaultAddresses, 100, 42)

		Convey("Then values stay in range and on step", func() {
			for _, r := range reqs {
				v := r.Fields["LivingArea"].(float64)
				So(v, ShouldBeBetweenOrEqual, 200, 10000)
				So(int(v-200)%50, ShouldEqual, 0)
				So(r.Fields["ViewYN"], ShouldHaveSameTypeAs, true)
				So([]string{"Downtown", "Uptown"}, ShouldContain, r.Choices["district"])
			}
		})

		Convey("Then the same seed reproduces the same inputs", func() {
			So(generate(opts, DefaultAddresses, 100, 42), ShouldResemble, reqs)
		})
	})
}

func TestLoadAddresses(t *testing.T) {
	Convey("Given an addresses file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "addresses.txt")

		Convey("When it mixes comments and blank lines", func() {
			So(os.WriteFile(path, []byte("# west\n1 Main St\n\n  2 Oak Ave  \n"), 0o600), ShouldBeNil)
			got, err := LoadAddresses(path)

			Convey("Then only addresses remain, trimmed", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []string{"1 Main St", "2 Oak Ave"})
			})
		})

		Convey("When it holds nothing usable", func() {
			So(os.WriteFile(path, []byte("# none\n"), 0o600), ShouldBeNil)
			_, err := LoadAddresses(path)
			So(err, ShouldNotBeNil)
		})

		Convey("When it does not exist", func() {
			_, err := LoadAddresses(filepath.Join(dir, "absent.txt"))
			So(err, ShouldNotBeNil)
		})
	})
}
